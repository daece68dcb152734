package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsDuplicateConstraintError(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	if !IsDuplicateConstraintError(err, "users_email_key") {
		t.Fatalf("expected match on constraint name")
	}
	if IsDuplicateConstraintError(err, "students_email_key") {
		t.Fatalf("expected no match for other constraint")
	}
	if !IsDuplicate(err) {
		t.Fatalf("expected any unique violation to count")
	}
	if IsDuplicate(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation is not a duplicate")
	}
}

func TestIsMongoDuplicateKey(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	if !IsDuplicate(dup) {
		t.Fatalf("expected E11000 to be a duplicate")
	}
	if IsDuplicate(errors.New("boom")) {
		t.Fatalf("plain error is not a duplicate")
	}
}
