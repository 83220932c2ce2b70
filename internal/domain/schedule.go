package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Difficulty level of a scheduled class.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyAllLevels    Difficulty = "all_levels"
)

// Location where a class takes place. Closed set for now.
type Location string

const (
	LocationGym  Location = "gym"
	LocationPark Location = "park"
)

// ScheduleStatus is the lifecycle state of a scheduled class.
type ScheduleStatus string

const (
	StatusActive    ScheduleStatus = "active"
	StatusOngoing   ScheduleStatus = "ongoing"
	StatusCompleted ScheduleStatus = "completed"
	StatusCancelled ScheduleStatus = "cancelled"
)

// ValidDifficulty reports whether d is one of the known difficulty levels.
func ValidDifficulty(d Difficulty) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced, DifficultyAllLevels:
		return true
	}
	return false
}

// ValidLocation reports whether l is one of the known locations.
func ValidLocation(l Location) bool {
	return l == LocationGym || l == LocationPark
}

// ValidStatus reports whether s is one of the known schedule statuses.
func ValidStatus(s ScheduleStatus) bool {
	switch s {
	case StatusActive, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ScheduledClass is a single bookable class instance on the calendar.
// ScheduledDate is an ISO 8601 date ("2006-01-02") and ScheduledTime is
// venue-local "HH:MM" or "HH:MM:SS"; both are kept in their wire form and
// parsed where needed so that malformed records can be skipped instead of
// failing a whole snapshot.
type ScheduledClass struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClassID         primitive.ObjectID `bson:"classId" json:"classId"`
	TrainerID       primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	ClassName       string             `bson:"className,omitempty" json:"className,omitempty"` // Denormalized for display and conflict messages
	ScheduledDate   string             `bson:"scheduledDate" json:"scheduledDate"`
	ScheduledTime   string             `bson:"scheduledTime" json:"scheduledTime"`
	Difficulty      Difficulty         `bson:"difficulty" json:"difficulty"`
	Location        Location           `bson:"location" json:"location"`
	MaxBookings     int                `bson:"maxBookings" json:"maxBookings"`
	CurrentBookings int                `bson:"currentBookings" json:"currentBookings"`
	Status          ScheduleStatus     `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DisplayName returns the denormalized class name, or a fallback literal when
// the joined projection could not supply one.
func (s *ScheduledClass) DisplayName() string {
	if s.ClassName == "" {
		return "Unknown Class"
	}
	return s.ClassName
}

// Date parses the scheduled date. ok is false for malformed records.
func (s *ScheduledClass) Date() (time.Time, bool) {
	d, err := ParseDate(s.ScheduledDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Time parses the scheduled time-of-day. ok is false for malformed records.
func (s *ScheduledClass) Time() (TimeOfDay, bool) {
	t, err := ParseTimeOfDay(s.ScheduledTime)
	if err != nil {
		return TimeOfDay{}, false
	}
	return t, true
}
