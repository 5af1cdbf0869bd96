package testutil

import (
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dormfix/dormfix-api/config"
	"github.com/dormfix/dormfix-api/models"
	"github.com/dormfix/dormfix-api/services"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// RequireTestEnvironmentOrSkip is similar to RequireTestEnvironment but skips the test
// instead of failing it. Use this for optional tests that should only run in test environment.
func RequireTestEnvironmentOrSkip(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Skipf("Skipping test: GO_ENV must be 'test' (current: %q)", env)
	}
}

// SetupTestDB creates an in-memory sqlite database with all application
// models migrated and installs it as the global database instance.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Ticket{}, &models.Location{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	config.SetDB(db)
	return db
}

// SetupTestConfig installs a minimal configuration for tests and returns it
func SetupTestConfig() *config.Config {
	cfg := &config.Config{
		JWTSecret: "acceptance-test-secret",
		GoEnv:     "test",
		Port:      "8080",
	}
	config.SetConfig(cfg)
	return cfg
}

// SetupMockServices installs mock implementations of the image service and
// the classifier, returning both for per-test configuration.
func SetupMockServices() (*services.MockImageService, *services.MockClassifier) {
	images := services.NewMockImageService()
	images.SetAsMockForTesting()

	classifier := services.NewMockClassifier()
	classifier.SetAsMockForTesting()

	return images, classifier
}

// CreateTestContext creates a test Gin context
func CreateTestContext() (*gin.Context, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	c, engine := gin.CreateTestContext(nil)
	return c, engine
}
