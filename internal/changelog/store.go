// Package changelog persists the last password-change time per user in a
// small SQLite database. It is an audit aid, not part of the credential
// data: callers must never fail a password change because recording the
// timestamp failed.
package changelog

import (
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Record maps one row of the last_change table: at most one per username.
type Record struct {
	Username string `gorm:"column:username;primaryKey"`
	Time     int64  `gorm:"column:time"`
}

func (Record) TableName() string { return "last_change" }

type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path and migrates the
// last_change table. The caller owns the handle and closes it at shutdown.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// RecordChange stamps username with the current time, replacing any earlier
// stamp. Lookup-then-write instead of a native upsert: the store is off any
// hot path and has no concurrent writers in this process model.
func (s *Store) RecordChange(username string) error {
	var rec Record
	err := s.db.Where("username = ?", username).First(&rec).Error
	switch {
	case err == nil:
		return s.db.Model(&Record{}).Where("username = ?", username).
			Update("time", time.Now().Unix()).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.Create(&Record{Username: username, Time: time.Now().Unix()}).Error
	default:
		return err
	}
}

// LastChange returns the recorded change time for username, and whether a
// record exists.
func (s *Store) LastChange(username string) (time.Time, bool, error) {
	var rec Record
	err := s.db.Where("username = ?", username).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(rec.Time, 0), true, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
