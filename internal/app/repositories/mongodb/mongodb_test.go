package mongodb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/yigit/studentdesk/internal/app/models"
	"github.com/yigit/studentdesk/internal/db"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// openTestDB connects to STUDENTDESK_TEST_MONGO_URI (a replica set, for
// transactions) and uses a fresh database per test.
func openTestDB(t *testing.T) *db.MongoDB {
	t.Helper()
	uri := os.Getenv("STUDENTDESK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("STUDENTDESK_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	database := client.Database(fmt.Sprintf("studentdesk_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = database.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	if err := EnsureIndexes(ctx, database); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	return &db.MongoDB{Client: client, DB: database}
}

func TestMongoRegistrationRollsBack(t *testing.T) {
	database := openTestDB(t)
	repos := NewRepositories(database)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repos.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := repos.Users.Create(ctx, &models.User{Name: "Ann", Email: "ann@x.com", Role: models.RoleStudent}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := repos.Users.GetByEmail(ctx, "ann@x.com"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected no user after rollback, got %v", err)
	}
}

func TestMongoTransactionRunsOnce(t *testing.T) {
	database := openTestDB(t)
	repos := NewRepositories(database)
	ctx := context.Background()

	// The driver's WithTransaction helper would re-run fn for this label.
	transient := mongo.CommandError{Code: 112, Name: "WriteConflict", Labels: []string{"TransientTransactionError"}}
	calls := 0
	err := repos.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		calls++
		if err := repos.Users.Create(ctx, &models.User{Name: "Ann", Email: "ann@x.com", Role: models.RoleUser}); err != nil {
			return err
		}
		return transient
	})

	var cmdErr mongo.CommandError
	if !errors.As(err, &cmdErr) || !cmdErr.HasErrorLabel("TransientTransactionError") {
		t.Fatalf("expected the callback error back, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("callback ran %d times, want 1", calls)
	}
	if _, err := repos.Users.GetByEmail(ctx, "ann@x.com"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected no user after abort, got %v", err)
	}
}

func TestMongoStudentConstraints(t *testing.T) {
	database := openTestDB(t)
	repos := NewRepositories(database)
	ctx := context.Background()

	owner := &models.User{Name: "Ann", Email: "ann@x.com", Role: models.RoleStudent}
	if err := repos.Users.Create(ctx, owner); err != nil {
		t.Fatalf("create user: %v", err)
	}

	first := &models.Student{Name: "Ann", Email: "ann@x.com", Age: 20, Course: "CS", Owner: &owner.ID}
	if err := repos.Students.Create(ctx, first); err != nil {
		t.Fatalf("create student: %v", err)
	}

	dup := &models.Student{Name: "Bob", Email: "ann@x.com", Age: 21, Course: "Math"}
	if err := repos.Students.Create(ctx, dup); !errors.Is(err, apperrors.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate email, got %v", err)
	}

	second := &models.Student{Name: "Ann", Email: "other@x.com", Age: 20, Course: "CS", Owner: &owner.ID}
	if err := repos.Students.Create(ctx, second); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("expected owner conflict, got %v", err)
	}

	// Unowned students do not collide on the partial owner index.
	for _, email := range []string{"c@x.com", "d@x.com"} {
		if err := repos.Students.Create(ctx, &models.Student{Name: "Cee", Email: email, Age: 30, Course: "Art"}); err != nil {
			t.Fatalf("create unowned student: %v", err)
		}
	}

	age := 22
	updated, err := repos.Students.Update(ctx, first.ID, models.StudentUpdate{Age: &age})
	if err != nil || updated.Age != 22 || updated.Course != "CS" {
		t.Fatalf("unexpected update result %+v (%v)", updated, err)
	}

	if _, err := repos.Students.GetByID(ctx, "123"); !errors.Is(err, apperrors.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}

	deleted, err := repos.Students.DeleteByOwner(ctx, owner.ID)
	if err != nil || !deleted {
		t.Fatalf("expected owned student deleted, got %v (%v)", deleted, err)
	}
}
