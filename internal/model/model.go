package model

import (
	"errors"

	"gorm.io/gorm"
)

// ErrDuplicateWorkout is returned when a workout violates a unique index.
var ErrDuplicateWorkout = errors.New("workout already exists")

// Workout represents a persisted workout in the database
type Workout struct {
	gorm.Model
	Date       string  `gorm:"type:varchar(10);not null;index"`
	Time       string  `gorm:"type:varchar(8);not null"`
	Distance   float64 `gorm:"not null;default:0"`
	HeartRate  int     `gorm:"not null;default:0"`
	Duration   int     `gorm:"not null;default:0"`
	Calories   int     `gorm:"not null;default:0"`
	Source     string  `gorm:"type:varchar(32);not null;default:'manual';uniqueIndex:idx_workouts_source_external_id"`
	ExternalID *string `gorm:"type:varchar(255);uniqueIndex:idx_workouts_source_external_id"`
}

// HabitData represents the daily goal achievement flags in the database
type HabitData struct {
	gorm.Model
	Date              string `gorm:"type:varchar(10);not null;uniqueIndex"`
	DistanceAchieved  bool   `gorm:"not null;default:false"`
	HeartRateAchieved bool   `gorm:"not null;default:false"`
	DurationAchieved  bool   `gorm:"not null;default:false"`
	WorkoutID         *uint
}
