package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/yigit/studentdesk/internal/app/models"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
)

func TestTransactionRollsBackOnError(t *testing.T) {
	store := NewStore()
	repos := NewRepositories(store)
	ctx := context.Background()

	boom := errors.New("boom")
	err := repos.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		u := &models.User{Name: "Ann", Email: "ann@x.com", Role: models.RoleStudent}
		if err := repos.Users.Create(ctx, u); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if users, _ := store.Counts(); users != 0 {
		t.Fatalf("expected rollback, found %d users", users)
	}
}

func TestDuplicateEmail(t *testing.T) {
	repos := NewRepositories(NewStore())
	ctx := context.Background()

	first := &models.User{Name: "Ann", Email: "ann@x.com", Role: models.RoleUser}
	if err := repos.Users.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repos.Users.Create(ctx, &models.User{Name: "Other", Email: "ann@x.com", Role: models.RoleUser})
	if !errors.Is(err, apperrors.ErrDuplicateEmail) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	got, err := repos.Users.GetByID(ctx, first.ID)
	if err != nil || got.Name != "Ann" {
		t.Fatalf("first record changed: %+v (%v)", got, err)
	}
}

func TestListNewestFirstAndInvalidID(t *testing.T) {
	repos := NewRepositories(NewStore())
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		if err := repos.Students.Create(ctx, &models.Student{Name: "S", Email: email, Age: 20, Course: "CS"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	list, err := repos.Students.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Email != "c@x.com" || list[2].Email != "a@x.com" {
		t.Fatalf("unexpected order: %v, %v, %v", list[0].Email, list[1].Email, list[2].Email)
	}

	if _, err := repos.Students.GetByID(ctx, "not-an-id"); !errors.Is(err, apperrors.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestFailOnFiresOnce(t *testing.T) {
	store := NewStore()
	repos := NewRepositories(store)
	ctx := context.Background()

	boom := errors.New("boom")
	store.FailOn(OpStudentCreate, boom)
	if err := repos.Students.Create(ctx, &models.Student{Email: "a@x.com"}); !errors.Is(err, boom) {
		t.Fatalf("expected injected fault, got %v", err)
	}
	if err := repos.Students.Create(ctx, &models.Student{Email: "a@x.com"}); err != nil {
		t.Fatalf("fault should fire once: %v", err)
	}
}
