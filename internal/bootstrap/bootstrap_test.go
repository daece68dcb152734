package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/studentdesk/internal/config"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-secret"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	t.Setenv("DB_DRIVER", config.DriverMemory)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SECURITY_BCRYPT_COST", "4")
	t.Setenv("SERVER_MODE", "production")
	t.Setenv("ADMIN_EMAIL", adminEmail)
	t.Setenv("ADMIN_PASSWORD", adminPassword)
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("KAFKA_ENABLED", "false")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	lgr := zerolog.Nop()
	infra, err := SetupInfrastructure(ctx, cfg, lgr)
	if err != nil {
		t.Fatalf("setup infrastructure: %v", err)
	}
	t.Cleanup(func() { _ = infra.Close(context.Background()) })

	deps := BuildDependencies(cfg, infra, lgr)
	if err := SeedDefaultData(ctx, cfg, deps); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return SetupRouter(cfg, deps, lgr)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Errors  []string        `json:"errors"`
	Stack   string          `json:"stack"`
}

func call(t *testing.T, router http.Handler, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode body %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, env
}

func decodeData(t *testing.T, env envelope, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func expectStatus(t *testing.T, what string, got, want int, env envelope) {
	t.Helper()
	if got != want {
		t.Fatalf("%s: status = %d, want %d (error %q, code %q)", what, got, want, env.Error, env.Code)
	}
}

func loginAdmin(t *testing.T, router http.Handler) string {
	t.Helper()
	status, env := call(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": adminEmail, "password": adminPassword,
	})
	expectStatus(t, "admin login", status, http.StatusOK, env)

	var login struct {
		Role  string `json:"role"`
		Token string `json:"token"`
	}
	decodeData(t, env, &login)
	if login.Role != "admin" || login.Token == "" {
		t.Fatalf("unexpected login response: %+v", login)
	}
	return login.Token
}

type registered struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Token string `json:"token"`
}

func register(t *testing.T, router http.Handler, body map[string]interface{}) registered {
	t.Helper()
	status, env := call(t, router, http.MethodPost, "/api/auth/register", "", body)
	expectStatus(t, "register", status, http.StatusCreated, env)
	if env.Message != "Registration successful!" {
		t.Errorf("register message = %q", env.Message)
	}

	var res registered
	decodeData(t, env, &res)
	return res
}

type studentView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Age    int    `json:"age"`
	Course string `json:"course"`
	Owner  string `json:"owner"`
}

func TestStudentRegistrationFlow(t *testing.T) {
	router := newTestRouter(t)

	ann := register(t, router, map[string]interface{}{
		"name": "Ann", "email": "ann@x.com", "password": "secret1",
		"role": "student", "age": 20, "course": "CS",
	})
	if ann.Role != "student" || ann.Token == "" {
		t.Fatalf("unexpected registration: %+v", ann)
	}

	// Only admins may log in.
	status, env := call(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ann@x.com", "password": "secret1",
	})
	expectStatus(t, "student login", status, http.StatusUnauthorized, env)
	if env.Code != "AUTH_001" || env.Error != "Invalid credentials" {
		t.Errorf("unexpected login error: %+v", env)
	}

	status, env = call(t, router, http.MethodGet, "/api/students/me", ann.Token, nil)
	expectStatus(t, "students/me", status, http.StatusOK, env)
	var own studentView
	decodeData(t, env, &own)
	if own.Owner != ann.ID || own.Email != "ann@x.com" || own.Age != 20 || own.Course != "CS" {
		t.Fatalf("unexpected own record: %+v", own)
	}

	status, env = call(t, router, http.MethodGet, "/api/auth/me", ann.Token, nil)
	expectStatus(t, "auth/me", status, http.StatusOK, env)

	// The owner may update their record but not list everyone.
	status, env = call(t, router, http.MethodPut, "/api/students/"+own.ID, ann.Token, map[string]interface{}{"age": 21})
	expectStatus(t, "owner update", status, http.StatusOK, env)
	var updated studentView
	decodeData(t, env, &updated)
	if updated.Age != 21 || updated.Name != "Ann" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	status, env = call(t, router, http.MethodGet, "/api/students", ann.Token, nil)
	expectStatus(t, "student lists students", status, http.StatusForbidden, env)
	if env.Code != "AUTH_009" {
		t.Errorf("code = %q, want AUTH_009", env.Code)
	}

	// Another user cannot read Ann's record.
	bob := register(t, router, map[string]interface{}{
		"name": "Bob", "email": "bob@x.com", "password": "secret1",
	})
	if bob.Role != "user" {
		t.Errorf("default role = %q, want user", bob.Role)
	}
	status, env = call(t, router, http.MethodGet, "/api/students/"+own.ID, bob.Token, nil)
	expectStatus(t, "foreign read", status, http.StatusForbidden, env)

	adminToken := loginAdmin(t, router)

	status, env = call(t, router, http.MethodGet, "/api/students", adminToken, nil)
	expectStatus(t, "admin lists students", status, http.StatusOK, env)
	var all []studentView
	decodeData(t, env, &all)
	if len(all) != 1 || all[0].ID != own.ID {
		t.Fatalf("unexpected student list: %+v", all)
	}

	// Deleting the student removes its owner and invalidates their token.
	status, env = call(t, router, http.MethodDelete, "/api/students/"+own.ID, adminToken, nil)
	expectStatus(t, "delete student", status, http.StatusOK, env)
	if env.Message != "Student and associated user deleted successfully" {
		t.Errorf("delete message = %q", env.Message)
	}

	status, env = call(t, router, http.MethodGet, "/api/auth/me", ann.Token, nil)
	expectStatus(t, "deleted user token", status, http.StatusUnauthorized, env)
	if env.Error != "User no longer exists" {
		t.Errorf("error = %q", env.Error)
	}

	status, env = call(t, router, http.MethodGet, "/api/students/"+own.ID, adminToken, nil)
	expectStatus(t, "deleted student", status, http.StatusNotFound, env)
	if env.Code != "RES_001" {
		t.Errorf("code = %q, want RES_001", env.Code)
	}
}

func TestRegisterErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name    string
		body    interface{}
		code    string
		message string
	}{
		{
			name:    "missing fields",
			body:    map[string]interface{}{"email": "a@x.com"},
			code:    "VAL_001",
			message: "Please provide name, email, and password",
		},
		{
			name:    "bad email",
			body:    map[string]interface{}{"name": "Ann", "email": "not-an-email", "password": "secret1"},
			code:    "VAL_001",
			message: "Please provide a valid email address",
		},
		{
			name:    "short password",
			body:    map[string]interface{}{"name": "Ann", "email": "a@x.com", "password": "123"},
			code:    "VAL_001",
			message: "Password must be at least 6 characters long",
		},
		{
			name:    "student without course",
			body:    map[string]interface{}{"name": "Ann", "email": "a@x.com", "password": "secret1", "role": "student", "age": 20},
			code:    "VAL_001",
			message: "Invalid student details",
		},
		{
			name:    "duplicate email",
			body:    map[string]interface{}{"name": "Root", "email": adminEmail, "password": "secret1"},
			code:    "RES_002",
			message: "User with this email already exists",
		},
		{
			name: "malformed json",
			body: `{"name": "Ann",`,
			code: "VAL_001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := call(t, router, http.MethodPost, "/api/auth/register", "", tt.body)
			expectStatus(t, tt.name, status, http.StatusBadRequest, env)
			if env.Success || env.Code != tt.code {
				t.Errorf("envelope = %+v, want code %s", env, tt.code)
			}
			if tt.message != "" && env.Error != tt.message {
				t.Errorf("error = %q, want %q", env.Error, tt.message)
			}
			if env.Stack != "" {
				t.Error("stack must not leak outside development mode")
			}
		})
	}
}

func TestAdminManagement(t *testing.T) {
	router := newTestRouter(t)
	adminToken := loginAdmin(t, router)

	status, env := call(t, router, http.MethodGet, "/api/admins", "", nil)
	expectStatus(t, "no token", status, http.StatusUnauthorized, env)
	if env.Code != "AUTH_008" {
		t.Errorf("code = %q, want AUTH_008", env.Code)
	}

	status, env = call(t, router, http.MethodGet, "/api/admins", "garbage", nil)
	expectStatus(t, "bad token", status, http.StatusUnauthorized, env)

	status, env = call(t, router, http.MethodPost, "/api/admins", adminToken, map[string]string{
		"name": "Jane Admin", "email": "Jane@Example.com",
	})
	expectStatus(t, "create admin", status, http.StatusCreated, env)
	var jane struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	decodeData(t, env, &jane)
	if jane.Email != "jane@example.com" || jane.Role != "admin" {
		t.Fatalf("unexpected admin: %+v", jane)
	}

	status, env = call(t, router, http.MethodPost, "/api/admins", adminToken, map[string]string{
		"name": "Jane Again", "email": "jane@example.com",
	})
	expectStatus(t, "duplicate admin", status, http.StatusBadRequest, env)
	if env.Code != "RES_002" {
		t.Errorf("code = %q, want RES_002", env.Code)
	}

	status, env = call(t, router, http.MethodGet, "/api/admins", adminToken, nil)
	expectStatus(t, "list admins", status, http.StatusOK, env)
	var admins []map[string]interface{}
	decodeData(t, env, &admins)
	if len(admins) != 2 {
		t.Fatalf("expected 2 admins, got %d", len(admins))
	}
	for _, a := range admins {
		if _, leaked := a["password"]; leaked {
			t.Fatal("password hash leaked in admin list")
		}
	}

	status, env = call(t, router, http.MethodPut, "/api/admins/"+jane.ID, adminToken, map[string]string{"name": "Jane A."})
	expectStatus(t, "update admin", status, http.StatusOK, env)

	status, env = call(t, router, http.MethodPut, "/api/admins/"+jane.ID, adminToken, map[string]string{})
	expectStatus(t, "empty update", status, http.StatusBadRequest, env)

	status, env = call(t, router, http.MethodGet, "/api/admins/not-an-id", adminToken, nil)
	expectStatus(t, "malformed id", status, http.StatusNotFound, env)
	if env.Error != "Resource not found with id of not-an-id" {
		t.Errorf("error = %q", env.Error)
	}

	status, env = call(t, router, http.MethodDelete, "/api/admins/"+jane.ID, adminToken, nil)
	expectStatus(t, "delete admin", status, http.StatusOK, env)
	if env.Message != "Admin deleted successfully" {
		t.Errorf("message = %q", env.Message)
	}

	status, env = call(t, router, http.MethodGet, "/api/admins/"+jane.ID, adminToken, nil)
	expectStatus(t, "deleted admin", status, http.StatusNotFound, env)
}

func TestOperationalEndpoints(t *testing.T) {
	router := newTestRouter(t)

	status, _ := call(t, router, http.MethodGet, "/ping", "", nil)
	if status != http.StatusOK {
		t.Fatalf("ping status = %d", status)
	}

	status, env := call(t, router, http.MethodGet, "/api/health", "", nil)
	expectStatus(t, "health", status, http.StatusOK, env)
	if !env.Success {
		t.Error("health should report success")
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "studentdesk_http_requests_total") {
		t.Error("metrics output lacks the request counter")
	}

	req = httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "StudentDesk API") {
		t.Errorf("swagger doc status = %d", w.Code)
	}
}
