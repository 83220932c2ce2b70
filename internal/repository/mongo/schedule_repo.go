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

const scheduleCollectionName = "schedules"

// mongoScheduleRepository implements repository.ScheduleRepository
type mongoScheduleRepository struct {
	collection *mongo.Collection
}

// NewMongoScheduleRepository creates a new scheduled-class repository.
func NewMongoScheduleRepository(db *mongo.Database) repository.ScheduleRepository {
	return &mongoScheduleRepository{
		collection: db.Collection(scheduleCollectionName),
	}
}

// Create inserts a new scheduled class instance.
func (r *mongoScheduleRepository) Create(ctx context.Context, schedule *domain.ScheduledClass) (primitive.ObjectID, error) {
	if schedule.ClassID == primitive.NilObjectID || schedule.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("schedule requires classId and trainerId")
	}
	if schedule.ScheduledDate == "" || schedule.ScheduledTime == "" {
		return primitive.NilObjectID, errors.New("schedule requires scheduledDate and scheduledTime")
	}

	schedule.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	if schedule.Status == "" {
		schedule.Status = domain.StatusActive
	}

	result, err := r.collection.InsertOne(ctx, schedule)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted schedule ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single scheduled class by its ID.
func (r *mongoScheduleRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ScheduledClass, error) {
	var schedule domain.ScheduledClass
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&schedule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &schedule, nil
}

// ListByDateRange retrieves schedules whose date falls within [from, to],
// sorted by date then time. ISO 8601 dates compare correctly as strings, so
// a plain range filter is sufficient.
func (r *mongoScheduleRepository) ListByDateRange(ctx context.Context, from, to string) ([]domain.ScheduledClass, error) {
	var schedules []domain.ScheduledClass
	filter := bson.M{"scheduledDate": bson.M{"$gte": from, "$lte": to}}
	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledDate", Value: 1}, {Key: "scheduledTime", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &schedules); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	// Return empty slice if nothing is scheduled in the range
	return schedules, nil
}

// Update replaces the mutable fields of a scheduled class.
func (r *mongoScheduleRepository) Update(ctx context.Context, schedule *domain.ScheduledClass) error {
	if schedule.ID == primitive.NilObjectID {
		return errors.New("schedule ID is required for update")
	}

	filter := bson.M{"_id": schedule.ID}
	updateDoc := bson.M{
		"$set": bson.M{
			"classId":       schedule.ClassID,
			"trainerId":     schedule.TrainerID,
			"className":     schedule.ClassName,
			"scheduledDate": schedule.ScheduledDate,
			"scheduledTime": schedule.ScheduledTime,
			"difficulty":    schedule.Difficulty,
			"location":      schedule.Location,
			"maxBookings":   schedule.MaxBookings,
			"status":        schedule.Status,
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

// UpdateStatus transitions the lifecycle status of a schedule.
func (r *mongoScheduleRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.ScheduleStatus) error {
	filter := bson.M{"_id": id}
	updateDoc := bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now().UTC(),
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

// IncrementBookings adjusts currentBookings by delta. The filter enforces
// the capacity invariant (currentBookings ≤ maxBookings) atomically: an
// increment that would overbook matches no document.
func (r *mongoScheduleRepository) IncrementBookings(ctx context.Context, id primitive.ObjectID, delta int) error {
	filter := bson.M{"_id": id}
	if delta > 0 {
		// Only match when there is room left for the whole delta.
		filter["$expr"] = bson.M{
			"$lte": bson.A{bson.M{"$add": bson.A{"$currentBookings", delta}}, "$maxBookings"},
		}
	} else {
		filter["currentBookings"] = bson.M{"$gte": -delta}
	}

	updateDoc := bson.M{
		"$inc": bson.M{"currentBookings": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Distinguish "gone" from "no capacity" for a useful caller error.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return repository.ErrNotFound
		}
		if delta > 0 {
			return repository.ErrClassFull
		}
		return repository.ErrUpdateFailed
	}
	return nil
}

// Delete removes a scheduled class.
func (r *mongoScheduleRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if id == primitive.NilObjectID {
		return errors.New("schedule ID is required for deletion")
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

// EnsureScheduleIndexes creates necessary indexes. Call during startup.
func EnsureScheduleIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Snapshot queries filter on date and sort by date+time.
			Keys:    bson.D{{Key: "scheduledDate", Value: 1}, {Key: "scheduledTime", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "trainerId", Value: 1}, {Key: "scheduledDate", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
