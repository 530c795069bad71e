package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/taishi0307/RumHabit/internal/habits"
	"github.com/taishi0307/RumHabit/internal/model"
)

// InitDB initializes the database connection and performs schema migration
func InitDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate auto-migrates the schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Workout{}, &model.HabitData{}); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// WorkoutStore persists workouts and keeps the daily habit record in step.
type WorkoutStore struct {
	db      *gorm.DB
	targets habits.Targets
	log     logrus.FieldLogger
}

func NewWorkoutStore(db *gorm.DB, targets habits.Targets, log logrus.FieldLogger) *WorkoutStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WorkoutStore{db: db, targets: targets, log: log}
}

// FindWorkoutsInRange returns workouts dated within [start, end], inclusive.
func (s *WorkoutStore) FindWorkoutsInRange(ctx context.Context, start, end string) ([]model.Workout, error) {
	var workouts []model.Workout
	err := s.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", start, end).
		Order("date, time").
		Find(&workouts).Error
	if err != nil {
		return nil, fmt.Errorf("finding workouts between %s and %s: %w", start, end, err)
	}
	return workouts, nil
}

// CreateWorkout inserts w and records the day's habit achievements in the
// same transaction. A unique index violation returns
// model.ErrDuplicateWorkout.
func (s *WorkoutStore) CreateWorkout(ctx context.Context, w *model.Workout) (uint, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(w).Error; err != nil {
			return err
		}
		return habits.RecordWorkout(tx, w, s.targets, s.log)
	})
	if err != nil {
		if isDuplicate(err) {
			return 0, model.ErrDuplicateWorkout
		}
		return 0, fmt.Errorf("creating workout: %w", err)
	}

	s.log.WithFields(logrus.Fields{"id": w.ID, "date": w.Date, "source": w.Source}).Debug("created workout")
	return w.ID, nil
}

// isDuplicate also matches the raw driver messages for dialects that do not
// implement error translation.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
