package db

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"resdir/internal/apierror"
)

func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}

	sqlDB, _ := gdb.DB()
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("❌ Database ping failed: %v", err)
	}

	log.Println("✅ Database connected successfully")
	return gdb
}

func AutoMigrate(gdb *gorm.DB, models ...any) {
	if err := gdb.AutoMigrate(models...); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
}

const (
	acquireRetries = 3
	acquireDelay   = 100 * time.Millisecond
)

// WithRetry runs fn against the database, retrying a fixed number of times
// on transient pool exhaustion. Typed API errors (Forbidden, NotFound and
// the rest) are final and never retried.
func WithRetry(ctx context.Context, gdb *gorm.DB, fn func(*gorm.DB) error) error {
	var err error
	for attempt := 0; attempt <= acquireRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(acquireDelay):
			}
		}
		err = fn(gdb.WithContext(ctx))
		if err == nil || !transient(err) {
			return err
		}
	}
	return err
}

// transient reports whether err looks like connection-pool exhaustion.
func transient(err error) bool {
	var ae *apierror.Error
	if errors.As(err, &ae) && ae.Kind != apierror.KindDatabaseError {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "too many connections") ||
		strings.Contains(msg, "connection pool") ||
		strings.Contains(msg, "database is locked")
}
