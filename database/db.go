package database

import (
	"fmt"
	"os"

	"salestracker-backend/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Connect() {
	// .env is optional; real deployments pass env vars directly.
	_ = godotenv.Load()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		envDefault("DB_HOST", "db"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		envDefault("DB_PORT", "5432"))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		zap.L().Fatal("could not connect to database", zap.Error(err))
	}
}

func AutoMigrate() {
	if err := DB.AutoMigrate(
		&models.User{},
		&models.ArticleCategory{},
		&models.Article{},
		&models.Sale{},
		&models.IdempotencyKey{},
	); err != nil {
		zap.L().Fatal("automigrate failed", zap.Error(err))
	}
}
