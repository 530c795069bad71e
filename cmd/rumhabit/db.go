package main

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func closeDB(db *gorm.DB, log logrus.FieldLogger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Warn("getting database handle")
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Warn("closing database")
	}
}
