// Package mongodb implements the repositories on MongoDB. Ids are ObjectID
// hex strings; writes made with a mongo.SessionContext join its transaction.
package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"github.com/yigit/studentdesk/internal/app/repositories"
	"github.com/yigit/studentdesk/internal/db"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	studentsCollection = "students"
)

var errDuplicateField = apperrors.NewCustomError(apperrors.ErrDuplicateEmail, "Duplicate field value entered")

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperrors.ErrInvalidID
	}
	return oid, nil
}

// EnsureIndexes creates the unique indexes the repositories rely on.
// It is idempotent.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("users_email_key")},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("users_role_created_at_idx")},
	})
	if err != nil {
		return errors.Wrap(err, "create user indexes")
	}

	_, err = database.Collection(studentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("students_email_key")},
		{
			Keys: bson.D{{Key: "owner", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("students_owner_key").
				SetPartialFilterExpression(bson.M{"owner": bson.M{"$type": "objectId"}}),
		},
		{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("students_created_at_idx")},
	})
	if err != nil {
		return errors.Wrap(err, "create student indexes")
	}
	return nil
}

// NewRepositories wires the MongoDB repositories around database.
func NewRepositories(database *db.MongoDB) *repositories.Repositories {
	return &repositories.Repositories{
		Users:    NewUserRepository(database.DB),
		Students: NewStudentRepository(database.DB),
		Tx:       database,
		Ping:     database.Ping,
		Close:    database.Close,
	}
}
