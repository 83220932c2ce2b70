package mongo

import (
	"context"
	"errors"
	"time"

	"fitbook/gym-app/internal/domain"
	"fitbook/gym-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const classCollectionName = "class_templates"

// mongoClassRepository implements repository.ClassRepository
type mongoClassRepository struct {
	collection *mongo.Collection
}

// NewMongoClassRepository creates a new class template repository.
func NewMongoClassRepository(db *mongo.Database) repository.ClassRepository {
	return &mongoClassRepository{
		collection: db.Collection(classCollectionName),
	}
}

// Create inserts a new class template.
func (r *mongoClassRepository) Create(ctx context.Context, class *domain.ClassTemplate) (primitive.ObjectID, error) {
	if class.Name == "" || class.Duration <= 0 || class.MaxMembers <= 0 {
		return primitive.NilObjectID, errors.New("class requires name, positive duration, and positive maxMembers")
	}
	class.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, class)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted class ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single class template by its ID.
func (r *mongoClassRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClassTemplate, error) {
	var class domain.ClassTemplate
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&class)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &class, nil
}

// List retrieves the whole catalog, sorted by name.
func (r *mongoClassRepository) List(ctx context.Context) ([]domain.ClassTemplate, error) {
	var classes []domain.ClassTemplate
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &classes); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return classes, nil
}

// Update replaces the mutable fields of a class template.
func (r *mongoClassRepository) Update(ctx context.Context, class *domain.ClassTemplate) error {
	if class.ID == primitive.NilObjectID {
		return errors.New("class ID is required for update")
	}

	filter := bson.M{"_id": class.ID}
	updateDoc := bson.M{
		"$set": bson.M{
			"name":          class.Name,
			"description":   class.Description,
			"duration":      class.Duration,
			"maxMembers":    class.MaxMembers,
			"difficulty":    class.Difficulty,
			"coverImageKey": class.CoverImageKey,
			"updatedAt":     time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a class template.
func (r *mongoClassRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if id == primitive.NilObjectID {
		return errors.New("class ID is required for deletion")
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureClassIndexes creates necessary indexes. Call during startup.
func EnsureClassIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
