package mongodb

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/yigit/studentdesk/internal/app/models"
	"github.com/yigit/studentdesk/internal/pkg/apperrors"
	"github.com/yigit/studentdesk/internal/pkg/dberrors"
	"github.com/yigit/studentdesk/internal/pkg/helpers"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type studentDocument struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	Name      string              `bson:"name"`
	Email     string              `bson:"email"`
	Age       int                 `bson:"age"`
	Course    string              `bson:"course"`
	Owner     *primitive.ObjectID `bson:"owner,omitempty"`
	CreatedAt time.Time           `bson:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at"`
}

func (d *studentDocument) toModel() *models.Student {
	s := &models.Student{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Age:       d.Age,
		Course:    d.Course,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	if d.Owner != nil {
		owner := d.Owner.Hex()
		s.Owner = &owner
	}
	return s
}

// mapStudentWriteError tells the two unique indexes apart by the index name
// in the E11000 message.
func mapStudentWriteError(err error) error {
	if !dberrors.IsMongoDuplicateKey(err) {
		return nil
	}
	if strings.Contains(err.Error(), "students_owner_key") {
		return apperrors.NewCustomError(apperrors.ErrValidationFailed, "User already owns a student record")
	}
	return errDuplicateField
}

// StudentRepository handles student documents
type StudentRepository struct {
	coll *mongo.Collection
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(database *mongo.Database) *StudentRepository {
	return &StudentRepository{coll: database.Collection(studentsCollection)}
}

// Create inserts a student and fills in its id and timestamps
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := helpers.UTCNow()
	doc := studentDocument{
		ID:        primitive.NewObjectID(),
		Name:      student.Name,
		Email:     student.Email,
		Age:       student.Age,
		Course:    student.Course,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if student.Owner != nil {
		owner, err := parseID(*student.Owner)
		if err != nil {
			return err
		}
		doc.Owner = &owner
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mapped := mapStudentWriteError(err); mapped != nil {
			return mapped
		}
		return errors.Wrap(err, "insert student")
	}

	student.ID = doc.ID.Hex()
	student.CreatedAt, student.UpdatedAt = now, now
	return nil
}

func (r *StudentRepository) findOne(ctx context.Context, filter bson.M) (*models.Student, error) {
	var doc studentDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "find student")
	}
	return doc.toModel(), nil
}

// GetByID retrieves a student by ID
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// GetByOwner retrieves the student owned by ownerID
func (r *StudentRepository) GetByOwner(ctx context.Context, ownerID string) (*models.Student, error) {
	oid, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"owner": oid})
}

// List returns all students, newest first
func (r *StudentRepository) List(ctx context.Context) ([]*models.Student, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	defer cur.Close(ctx)

	students := []*models.Student{}
	for cur.Next(ctx) {
		var doc studentDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode student")
		}
		students = append(students, doc.toModel())
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate students")
	}
	return students, nil
}

// EmailExists reports whether a student holds email
func (r *StudentRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(err, "count students by email")
	}
	return n > 0, nil
}

// Update applies a partial update and returns the stored student
func (r *StudentRepository) Update(ctx context.Context, id string, update models.StudentUpdate) (*models.Student, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": helpers.UTCNow()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Age != nil {
		set["age"] = *update.Age
	}
	if update.Course != nil {
		set["course"] = *update.Course
	}

	var doc studentDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrNotFound
		}
		return nil, errors.Wrap(err, "update student")
	}
	return doc.toModel(), nil
}

// Delete removes a student
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrap(err, "delete student")
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteByOwner removes the student owned by ownerID, if any
func (r *StudentRepository) DeleteByOwner(ctx context.Context, ownerID string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return false, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"owner": oid})
	if err != nil {
		return false, errors.Wrap(err, "delete student by owner")
	}
	return res.DeletedCount > 0, nil
}
