package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"store-rating/internal/config"
	"store-rating/internal/services"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      testSecret,
		TokenTTL:       time.Hour,
		BcryptCost:     4,
		RateLimitRPS:   0.001,
		RateLimitBurst: 1,
		CORSOrigins:    []string{"http://localhost:3000"},
	}
}

func setupRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return SetupRouter(sqlDB, testConfig(), zerolog.Nop()), mock
}

func bearer(t *testing.T, userID int, role string) string {
	t.Helper()
	token, err := services.NewTokenService(testSecret, time.Hour, zerolog.Nop()).GenerateToken(userID, role)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRoleGate(t *testing.T) {
	h, _ := setupRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		role       string
		wantStatus int
	}{
		{"admin route without token", http.MethodGet, "/admin/dashboard", "", http.StatusUnauthorized},
		{"admin route as user", http.MethodGet, "/admin/dashboard", "user", http.StatusForbidden},
		{"admin route as store owner", http.MethodGet, "/admin/users", "store_owner", http.StatusForbidden},
		{"owner route as admin", http.MethodGet, "/owner/dashboard", "admin", http.StatusForbidden},
		{"user route as store owner", http.MethodGet, "/user/stores", "store_owner", http.StatusForbidden},
		{"user route as admin", http.MethodPost, "/user/rating", "admin", http.StatusForbidden},
		{"update password without token", http.MethodPost, "/auth/update-password", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{}"))
			if tt.role != "" {
				req.Header.Set("Authorization", bearer(t, 1, tt.role))
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRoleGate_AllowsMatchingRole(t *testing.T) {
	h, mock := setupRouter(t)
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(0))
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"c"}).AddRow(0))

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.Header.Set("Authorization", bearer(t, 1, "admin"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"usersCount":1,"storesCount":0,"ratingsCount":0}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	h, _ := setupRouter(t)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("not json"))
		req.RemoteAddr = "192.0.2.10:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusBadRequest, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		h, mock := setupRouter(t)
		mock.ExpectPing()

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("database down", func(t *testing.T) {
		h, mock := setupRouter(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := setupRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestCORSPreflight(t *testing.T) {
	h, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/user/rating", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Less(t, rec.Code, 300)
}

func TestSecurityHeadersApplied(t *testing.T) {
	h, _ := setupRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
