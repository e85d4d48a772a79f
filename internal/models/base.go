package models

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// BaseModel contains common columns for all tables.
// ID is the storage surrogate key and never leaves the store.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Entity is implemented by the four row shapes only.
type Entity interface {
	BusinessID() string
	entity()
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver string
	DSN    string
	// Path is the SQLite file; its directory is created when missing.
	Path string
}

// InitDB opens the configured database and migrates the schema.
func InitDB(config DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch config.Driver {
	case "", "sqlite":
		if config.Path != "" && config.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		dialector = sqlite.Open(config.DSN)
	case "mysql":
		dialector = mysql.Open(config.DSN)
	case "postgres":
		dialector = postgres.Open(config.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if config.Driver == "" || config.Driver == "sqlite" {
		// one writer at a time; SQLite locks the whole file anyway
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// Auto migrate the database models
	err = db.AutoMigrate(
		&Account{},
		&Patient{},
		&Appointment{},
		&Invoice{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
