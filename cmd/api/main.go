package main

import (
	"fmt"
	"log"

	"resdir/internal/config"
	"resdir/internal/db"
	httpserver "resdir/internal/http"
	"resdir/internal/models"
	"resdir/internal/seed"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DSN)
	db.AutoMigrate(gdb,
		&models.User{},
		&models.Group{},
		&models.Namespace{},
		&models.Class{},
		&models.Object{},
		&models.PermissionGrant{},
		&models.ClassRelation{},
		&models.ObjectRelation{},
		&models.ClassClosure{},
	)

	if err := seed.FirstSetup(gdb, cfg); err != nil {
		log.Fatalf("❌ Seed failed: %v", err)
	}

	r := httpserver.NewRouter(gdb, cfg)
	log.Printf("🚀 Server listening on :%s\n", cfg.AppPort)
	r.Run(fmt.Sprintf(":%s", cfg.AppPort))
}
