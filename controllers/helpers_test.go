package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/mechanic-shop-api/config"
	"github.com/kendall-kelly/mechanic-shop-api/middleware"
	"github.com/kendall-kelly/mechanic-shop-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

// setupTestDB opens an in-memory sqlite database with all models migrated
// and installs it plus a test configuration into the config package
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Mechanic{},
		&models.ServiceTicket{},
		&models.PartDescription{},
		&models.SerializedPart{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	config.SetConfig(&config.Config{
		DatabaseURL: "sqlite::memory:",
		GoEnv:       "test",
		JWTSecret:   testJWTSecret,
	})

	return db
}

// adminToken mints a mechanic-role bearer token for admin-gated routes
func adminToken(t *testing.T, mechanicID uint) string {
	t.Helper()

	token, err := middleware.EncodeToken(testJWTSecret, mechanicID, middleware.RoleMechanic)
	if err != nil {
		t.Fatalf("Failed to encode token: %v", err)
	}
	return token
}

// userToken mints a user-role bearer token
func userToken(t *testing.T, userID uint) string {
	t.Helper()

	token, err := middleware.EncodeToken(testJWTSecret, userID, middleware.RoleUser)
	if err != nil {
		t.Fatalf("Failed to encode token: %v", err)
	}
	return token
}

// performRequest runs one request through the router and records the response
func performRequest(router *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewBuffer(payload)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// parseResponse unmarshals a recorded JSON response body
func parseResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Response should be valid JSON: %v", err)
	}
	return response
}

// errorCode extracts error.code from a parsed error envelope
func errorCode(response map[string]interface{}) string {
	errObj, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errObj["code"].(string)
	return code
}
