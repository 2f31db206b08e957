package repository

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aki-13627/animalia/internal/database"
	"github.com/aki-13627/animalia/internal/domain"
)

func newRepositoryDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createUserForTest(t *testing.T, db *gorm.DB, name, email string) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, Email: email}
	if err := NewUserRepository(db).Create(user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createPostForTest(t *testing.T, db *gorm.DB, userID, caption string) *domain.Post {
	t.Helper()
	post := &domain.Post{UserID: userID, Caption: caption, ImageKey: "posts/" + caption}
	if err := NewPostRepository(db).Create(post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}
