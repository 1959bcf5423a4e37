package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resdir/internal/models"
)

// MemoryDSN returns a uniquely named shared-cache in-memory DSN. The name
// keeps every pooled connection on the same database while isolating tests
// from each other.
func MemoryDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
}

// OpenTest returns an isolated in-memory database with the full schema
// migrated. Each call gets its own database.
func OpenTest(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(MemoryDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Namespace{},
		&models.Class{},
		&models.Object{},
		&models.PermissionGrant{},
		&models.ClassRelation{},
		&models.ObjectRelation{},
		&models.ClassClosure{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}
