// Command jamseed creates a user if needed and loads the demo data set for it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"jam/internal/auth"
	"jam/internal/config"
	"jam/internal/db"
	"jam/internal/logger"
	"jam/internal/models"
	"jam/internal/seed"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	email := flag.String("email", "demo@jam.local", "owner of the seeded rows")
	password := flag.String("password", "", "password when the user has to be created")
	admin := flag.Bool("admin", false, "grant admin when the user has to be created")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	gdb, err := db.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	if err := db.AutoMigrateAndIndexes(gdb); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	ctx := context.Background()
	uid, err := ensureUser(ctx, gdb, strings.ToLower(strings.TrimSpace(*email)), *password, *admin)
	if err != nil {
		log.Fatal("user", zap.Error(err))
	}

	counts, err := seed.Seed(ctx, gdb, uid, time.Now())
	if err != nil {
		log.Fatal("seed rolled back", zap.Error(err))
	}
	log.Info("seeded",
		zap.Uint64("user_id", uid),
		zap.Int("jobs", counts.Jobs),
		zap.Int("applications", counts.Applications),
		zap.Int("interviews", counts.Interviews))
}

func ensureUser(ctx context.Context, gdb *gorm.DB, email, password string, admin bool) (uint64, error) {
	var u models.User
	err := gdb.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err == nil {
		return u.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	if len(password) < 8 {
		return 0, fmt.Errorf("user %s does not exist; pass -password (8+ chars) to create it", email)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}
	u = models.User{Email: email, PasswordHash: hash, Theme: "mixed", IsAdmin: admin}
	if err := gdb.WithContext(ctx).Create(&u).Error; err != nil {
		return 0, err
	}
	return u.ID, nil
}
