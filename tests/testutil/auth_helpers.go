package testutil

import (
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kendall-kelly/mechanic-shop-api/middleware"
)

// TestJWTSecret is the signing secret shared by all test tokens
const TestJWTSecret = "test-jwt-secret"

// IssueToken mints a signed bearer token for the given subject and role
func IssueToken(t *testing.T, subjectID uint, role string) string {
	t.Helper()

	token, err := middleware.EncodeToken(TestJWTSecret, subjectID, role)
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return token
}

// IssueAdminToken mints a mechanic-role token for admin-gated routes
func IssueAdminToken(t *testing.T, mechanicID uint) string {
	return IssueToken(t, mechanicID, middleware.RoleMechanic)
}

// IssueUserToken mints a user-role token
func IssueUserToken(t *testing.T, userID uint) string {
	return IssueToken(t, userID, middleware.RoleUser)
}

// SetMockAuthContext injects verified-looking claims into a Gin context,
// bypassing token parsing for handler-level tests
func SetMockAuthContext(c *gin.Context, subjectID uint, role string) {
	subject := strconv.FormatUint(uint64(subjectID), 10)
	claims := &middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
		},
	}

	c.Set("user_id", subject)
	c.Set("role", role)
	c.Set("claims", claims)
}
