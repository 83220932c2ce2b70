package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClassTemplate represents a catalog entry that scheduled classes are created
// from (e.g., "Yoga", "HIIT"). Created by admins, rarely mutated.
type ClassTemplate struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Duration      int                `bson:"duration" json:"duration"` // Minutes
	MaxMembers    int                `bson:"maxMembers" json:"maxMembers"`
	Difficulty    Difficulty         `bson:"difficulty,omitempty" json:"difficulty,omitempty"` // Default for new schedules
	CoverImageKey string             `bson:"coverImageKey,omitempty" json:"coverImageKey,omitempty"` // S3 object key, set after upload
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
