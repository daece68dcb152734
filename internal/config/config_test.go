package config

import (
	"os"
	"path/filepath"
	"testing"
)

func missingPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.yaml")
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig(missingPath(t))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Fatalf("expected postgres driver, got %s", cfg.Database.Driver)
	}
	if cfg.JWT.TokenExpiration != "720h" {
		t.Fatalf("expected 30 day token expiration, got %s", cfg.JWT.TokenExpiration)
	}
	if cfg.Validation.StudentAgeMin != 1 || cfg.Validation.StudentAgeMax != 120 {
		t.Fatalf("unexpected age bounds %d..%d", cfg.Validation.StudentAgeMin, cfg.Validation.StudentAgeMax)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development mode by default")
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: "9000"
  mode: production
database:
  driver: mongo
mongo:
  uri: mongodb://db:27017
  database: records
jwt:
  secret: from-file
kafka:
  brokers: "k1:9092, k2:9092"
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("VALIDATION_STUDENT_AGE_MIN", "16")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Fatalf("expected SERVER_PORT override, got %s", cfg.Server.Port)
	}
	if cfg.IsDevelopment() {
		t.Fatalf("expected production mode from file")
	}
	if cfg.Database.Driver != DriverMongo || cfg.Mongo.Database != "records" {
		t.Fatalf("expected mongo settings from file, got %s/%s", cfg.Database.Driver, cfg.Mongo.Database)
	}
	if cfg.JWT.Secret != "from-file" {
		t.Fatalf("expected secret from file, got %s", cfg.JWT.Secret)
	}
	if !cfg.Redis.Enabled {
		t.Fatalf("expected REDIS_ENABLED override")
	}
	if cfg.Validation.StudentAgeMin != 16 {
		t.Fatalf("expected age min 16, got %d", cfg.Validation.StudentAgeMin)
	}
	brokers := cfg.KafkaBrokers()
	if len(brokers) != 2 || brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", brokers)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":  {"JWT_SECRET": ""},
		"unknown driver":  {"JWT_SECRET": "s", "DB_DRIVER": "sqlite"},
		"bad expiration":  {"JWT_SECRET": "s", "JWT_TOKEN_EXPIRATION": "thirty days"},
		"bad age bounds":  {"JWT_SECRET": "s", "VALIDATION_STUDENT_AGE_MIN": "50", "VALIDATION_STUDENT_AGE_MAX": "20"},
		"bad bcrypt cost": {"JWT_SECRET": "s", "SECURITY_BCRYPT_COST": "2"},
		"bad int":         {"JWT_SECRET": "s", "REDIS_DB": "zero"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(missingPath(t)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestMemoryDriverSkipsDatabaseChecks(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DB_HOST", "")

	if _, err := LoadConfig(missingPath(t)); err != nil {
		t.Fatalf("memory driver should not need a host: %v", err)
	}
}
