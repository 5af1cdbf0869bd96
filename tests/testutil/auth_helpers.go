package testutil

import (
	"testing"

	"gorm.io/gorm"

	"github.com/dormfix/dormfix-api/config"
	"github.com/dormfix/dormfix-api/models"
	"github.com/dormfix/dormfix-api/utils"
)

// CreateTestUser inserts a user with a bcrypt-hashed password and returns it
func CreateTestUser(t *testing.T, db *gorm.DB, name, email, password string) models.User {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	user := models.User{
		Name:     name,
		Email:    email,
		Password: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// TokenForUser issues a valid bearer token for a user using the active config
func TokenForUser(t *testing.T, user models.User) string {
	t.Helper()

	token, err := utils.SignToken(config.GetConfig().JWTSecret, user.ID, user.Email)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}
