package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	id := uuid.New()

	token, expiresAt, err := svc.GenerateToken(Claims{UserID: id, Email: "a@b.co", Role: "sme"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "sme", claims.Role)
	assert.Equal(t, id.String(), claims.Subject)
}

func TestJWTService_RejectsExpiredAndForeignTokens(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute)
	token, _, err := svc.GenerateToken(Claims{UserID: uuid.New(), Role: "sme"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	other := NewJWTService("other-secret", time.Minute)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestNewJWTService_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTokenTTL, NewJWTService("s", 0).ttl)
}

func protectedRouter(svc *JWTService, roles ...string) *gin.Engine {
	r := gin.New()
	r.GET("/protected", JWTMiddleware(svc), RequireRole(roles...), func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.String())
	})
	return r
}

func TestJWTMiddleware(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	id := uuid.New()
	smeToken, _, err := svc.GenerateToken(Claims{UserID: id, Role: "sme"})
	require.NoError(t, err)
	investorToken, _, err := svc.GenerateToken(Claims{UserID: uuid.New(), Role: "investor"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Token " + smeToken, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + investorToken, http.StatusForbidden},
		{"allowed", "Bearer " + smeToken, http.StatusOK},
	}

	router := protectedRouter(svc, "sme")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, id.String(), w.Body.String())
			}
		})
	}
}

func TestRequireRole_MultipleRoles(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	token, _, err := svc.GenerateToken(Claims{UserID: uuid.New(), Role: "admin"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protectedRouter(svc, "investor", "admin").ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     string
	}{
		{"Str0ng!pass", ""},
		{"  Str0ng!pass  ", ""},
		{"        ", "Password cannot be empty or spaces"},
		{"Sh0rt!", "Password must be at least 8 characters"},
		{"A1!" + strings.Repeat("a", 70), "Password must be 72 characters or less"},
		{"lowercase1!", "Password must include at least 1 uppercase letter"},
		{"UPPERCASE1!", "Password must include at least 1 lowercase letter"},
		{"NoDigits!!", "Password must include at least 1 number"},
		{"NoSymbol12", "Password must include at least 1 symbol"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidatePassword(tt.password), "password %q", tt.password)
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!pass")
	require.NoError(t, err)

	assert.True(t, CheckPassword("Str0ng!pass", hash))
	assert.False(t, CheckPassword("Wr0ng!pass", hash))
}

func TestEmailHelpers(t *testing.T) {
	assert.Equal(t, "owner@sme.co", NormalizeEmail("  Owner@SME.co \n"))
	assert.True(t, ValidEmail("owner@sme.co"))
	assert.False(t, ValidEmail("owner@sme"))
	assert.False(t, ValidEmail("owner sme@x.co"))
	assert.False(t, ValidEmail(""))
}
