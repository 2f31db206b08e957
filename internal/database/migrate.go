package database

import (
	"gorm.io/gorm"

	"github.com/aki-13627/animalia/internal/domain"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(domain.AllModels()...)
}
