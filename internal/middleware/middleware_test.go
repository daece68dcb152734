package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/yigit/studentdesk/internal/app/models"
	"github.com/yigit/studentdesk/internal/app/models/dto"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
	"github.com/yigit/studentdesk/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticRevocations map[string]bool

func (s staticRevocations) RevokeUser(context.Context, string, time.Duration) error { return nil }

func (s staticRevocations) IsRevoked(_ context.Context, userID string) (bool, error) {
	return s[userID], nil
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestTranslate(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
		msg    string
	}{
		{"validation", apperrors.NewValidationError("Validation failed", "Name is required"), 400, dto.ErrorCodeValidationFailed, "Validation failed"},
		{"weak password", apperrors.NewCustomError(apperrors.ErrWeakPassword, "Password must be at least 6 characters long"), 400, dto.ErrorCodeValidationFailed, "Password must be at least 6 characters long"},
		{"duplicate", errors.Wrap(apperrors.NewCustomError(apperrors.ErrDuplicateEmail, "Duplicate field value entered"), "create"), 400, dto.ErrorCodeResourceAlreadyExists, "Duplicate field value entered"},
		{"not found", apperrors.NewNotFoundError("42"), 404, dto.ErrorCodeResourceNotFound, "Resource not found with id of 42"},
		{"invalid id", apperrors.ErrInvalidID, 404, dto.ErrorCodeResourceNotFound, "Resource not found"},
		{"credentials", apperrors.ErrInvalidCredentials, 401, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
		{"expired", apperrors.ErrTokenExpired, 401, dto.ErrorCodeExpiredToken, "Token has expired"},
		{"invalid token", fmt.Errorf("%w: bad signature", apperrors.ErrTokenInvalid), 401, dto.ErrorCodeInvalidToken, "Invalid token"},
		{"unauthorized", apperrors.ErrUnauthorized, 401, dto.ErrorCodeUnauthorized, "Not authorized to access this route"},
		{"forbidden", apperrors.NewForbiddenError("nope"), 403, dto.ErrorCodeForbidden, "nope"},
		{"unknown", errors.New("db exploded"), 500, dto.ErrorCodeInternalServer, "Server Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, resp := Translate(tc.err, false)
			if status != tc.status || resp.Code != tc.code || resp.Error != tc.msg || resp.Success {
				t.Fatalf("got %d %+v", status, resp)
			}
			if resp.Stack != "" {
				t.Fatal("stack must be hidden outside development")
			}
		})
	}

	_, resp := Translate(apperrors.NewValidationError("Validation failed", "Name is required", "Age is required"), false)
	if len(resp.Errors) != 2 {
		t.Fatalf("expected field messages, got %v", resp.Errors)
	}
}

func TestTranslateDebugExposesStack(t *testing.T) {
	status, resp := Translate(errors.Wrap(errors.New("connection refused"), "list students"), true)
	if status != 500 || resp.Error != "list students: connection refused" || resp.Stack == "" {
		t.Fatalf("expected detailed 500, got %d %+v", status, resp)
	}
}

func newAuthRouter(jwtService *auth.JWTService, revoked staticRevocations) *gin.Engine {
	m := NewAuthMiddleware(jwtService, revoked)
	r := gin.New()
	r.Use(ErrorHandler(false))
	r.GET("/me", m.Authenticate(), func(c *gin.Context) {
		identity, _ := CurrentIdentity(c)
		c.JSON(http.StatusOK, identity)
	})
	r.GET("/admin", m.Authenticate(), m.RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthenticateAndRequireRoles(t *testing.T) {
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", TokenExp: time.Hour, TokenIssuer: "test"})
	r := newAuthRouter(jwtService, staticRevocations{"gone": true})

	adminToken, _, _ := jwtService.GenerateToken("a1", models.RoleAdmin)
	studentToken, _, _ := jwtService.GenerateToken("s1", models.RoleStudent)
	goneToken, _, _ := jwtService.GenerateToken("gone", models.RoleAdmin)
	foreign := auth.NewJWTService(auth.JWTConfig{SecretKey: "other", TokenExp: time.Hour, TokenIssuer: "test"})
	foreignToken, _, _ := foreign.GenerateToken("a1", models.RoleAdmin)
	expired := auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", TokenExp: time.Hour, TokenIssuer: "test"}).
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expiredToken, _, _ := expired.GenerateToken("a1", models.RoleAdmin)

	cases := []struct {
		name   string
		path   string
		header string
		status int
		code   dto.ErrorCode
	}{
		{"missing header", "/me", "", 401, dto.ErrorCodeUnauthorized},
		{"bad scheme", "/me", "Basic abc", 401, dto.ErrorCodeUnauthorized},
		{"foreign signature", "/me", "Bearer " + foreignToken, 401, dto.ErrorCodeInvalidToken},
		{"expired", "/me", "Bearer " + expiredToken, 401, dto.ErrorCodeExpiredToken},
		{"revoked user", "/me", "Bearer " + goneToken, 401, dto.ErrorCodeUnauthorized},
		{"student on admin route", "/admin", "Bearer " + studentToken, 403, dto.ErrorCodeForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if resp := decodeError(t, w); resp.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, resp.Code)
			}
		})
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", studentToken)
	r.ServeHTTP(w, req)
	var identity models.Identity
	if err := json.Unmarshal(w.Body.Bytes(), &identity); err != nil || w.Code != 200 || identity.UserID != "s1" || identity.Role != models.RoleStudent {
		t.Fatalf("raw token should authenticate, got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("admin should pass, got %d", w.Code)
	}
}

func TestRecoveryAndPushedErrors(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(true), Recovery(zerolog.Nop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/pushed", func(c *gin.Context) { _ = c.Error(apperrors.NewNotFoundError("7")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if resp := decodeError(t, w); w.Code != 500 || resp.Error != "boom" || resp.Stack == "" {
		t.Fatalf("unexpected panic response %d %+v", w.Code, resp)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pushed", nil))
	if resp := decodeError(t, w); w.Code != 404 || resp.Error != "Resource not found with id of 7" {
		t.Fatalf("unexpected pushed error response %d %+v", w.Code, resp)
	}
}
