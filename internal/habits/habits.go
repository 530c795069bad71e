// Package habits records which daily goals a day's workouts achieved.
package habits

import (
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/taishi0307/RumHabit/internal/model"
)

// Targets are the daily goal thresholds.
type Targets struct {
	DistanceKm      float64
	HeartRate       int
	DurationMinutes int
}

// DefaultTargets are used for any target left at zero.
var DefaultTargets = Targets{DistanceKm: 5.0, HeartRate: 150, DurationMinutes: 30}

// WithDefaults fills zero targets from DefaultTargets.
func (t Targets) WithDefaults() Targets {
	if t.DistanceKm <= 0 {
		t.DistanceKm = DefaultTargets.DistanceKm
	}
	if t.HeartRate <= 0 {
		t.HeartRate = DefaultTargets.HeartRate
	}
	if t.DurationMinutes <= 0 {
		t.DurationMinutes = DefaultTargets.DurationMinutes
	}
	return t
}

// Evaluate returns the achievement flags a single workout earns.
func (t Targets) Evaluate(w *model.Workout) (distance, heartRate, duration bool) {
	t = t.WithDefaults()
	return w.Distance >= t.DistanceKm,
		w.HeartRate >= t.HeartRate,
		w.Duration >= t.DurationMinutes*60
}

// RecordWorkout updates the habit record for the workout's date. Flags only
// ever move from false to true. A nil log uses the standard logger.
func RecordWorkout(db *gorm.DB, w *model.Workout, targets Targets, log logrus.FieldLogger) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("date", w.Date)

	var day model.HabitData

	// Use FirstOrCreate to find the record or create it if it doesn't exist
	result := db.Where(model.HabitData{Date: w.Date}).FirstOrCreate(&day)
	if result.Error != nil {
		log.WithError(result.Error).Error("Failed to find or create habit record")
		return result.Error
	}

	distance, heartRate, duration := targets.Evaluate(w)
	if !distance && !heartRate && !duration {
		log.Debug("No update needed for habit record.")
		return nil
	}

	day.DistanceAchieved = day.DistanceAchieved || distance
	day.HeartRateAchieved = day.HeartRateAchieved || heartRate
	day.DurationAchieved = day.DurationAchieved || duration
	day.WorkoutID = &w.ID

	if err := db.Save(&day).Error; err != nil {
		log.WithError(err).Error("Failed to save habit record")
		return err
	}
	return nil
}

// GetDay retrieves the habit record for date, or nil when none exists.
func GetDay(db *gorm.DB, date string) (*model.HabitData, error) {
	var day model.HabitData
	err := db.Where("date = ?", date).First(&day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &day, nil
}
