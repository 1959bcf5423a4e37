package seed

import (
	"log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"resdir/internal/config"
	"resdir/internal/models"
)

// FirstSetup makes sure the directory has an admin group, an admin user in
// it, and a default namespace fully granted to that group. Safe to run on
// every startup.
func FirstSetup(db *gorm.DB, cfg config.Config) error {
	// -------------------------
	// 1) Ensure the admin group
	// -------------------------
	adminGroup := models.Group{Name: cfg.AdminGroup, Description: "Administrators"}
	if err := db.Where("name = ?", adminGroup.Name).FirstOrCreate(&adminGroup).Error; err != nil {
		return err
	}

	// -------------------------
	// 2) Ensure the admin user
	// -------------------------
	adminPass := cfg.AdminPassword
	generated := false
	if adminPass == "" {
		adminPass = uuid.NewString()
		generated = true
	}
	passHash, err := bcrypt.GenerateFromPassword([]byte(adminPass), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := models.User{
		Username:     cfg.AdminUser,
		Email:        cfg.AdminUser + "@localhost",
		Active:       true,
		PasswordHash: string(passHash),
	}
	created := false
	if err := db.Where("username = ?", adminUser.Username).First(&adminUser).Error; err != nil {
		if err := db.Create(&adminUser).Error; err != nil {
			return err
		}
		created = true
	}

	// -------------------------
	// 3) user_groups mapping (admin user -> admin group)
	// Direct insert into the join table; GORM has no model for it.
	// -------------------------
	var memberCount int64
	if err := db.Table("user_groups").
		Where("user_id = ? AND group_id = ?", adminUser.ID, adminGroup.ID).
		Count(&memberCount).Error; err != nil {
		return err
	}
	if memberCount == 0 {
		if res := db.Exec("INSERT INTO user_groups (user_id, group_id) VALUES (?, ?)",
			adminUser.ID, adminGroup.ID); res.Error != nil {
			return res.Error
		}
	}

	// -------------------------
	// 4) Default namespace with a full grant to the admin group
	// -------------------------
	ns := models.Namespace{Name: "default", Description: "Default namespace"}
	if err := db.Where("name = ?", ns.Name).FirstOrCreate(&ns).Error; err != nil {
		return err
	}
	grant := models.PermissionGrant{NamespaceID: ns.ID, GroupID: adminGroup.ID}
	if err := db.Where("namespace_id = ? AND group_id = ?", ns.ID, adminGroup.ID).
		First(&grant).Error; err != nil {
		for _, p := range models.AllPermissions() {
			grant.SetFlag(p, true)
		}
		if err := db.Create(&grant).Error; err != nil {
			return err
		}
	}

	if created && generated {
		// Log the generated password exactly once, on first creation.
		log.Printf("✅ Seed OK | admin=%s pass=%s (generated, change it) | group=%s | namespace=%s",
			adminUser.Username, adminPass, adminGroup.Name, ns.Name)
	} else {
		log.Printf("✅ Seed OK | admin=%s | group=%s | namespace=%s",
			adminUser.Username, adminGroup.Name, ns.Name)
	}
	return nil
}
