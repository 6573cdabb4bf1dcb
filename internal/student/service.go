package student

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"srms/internal/shared"
)

// Service is the student directory: listing and profile maintenance over
// accounts carrying the student role.
type Service struct {
	db       *mongo.Database
	usersCol *mongo.Collection
}

// UpdateInput is a sparse profile patch.
type UpdateInput struct {
	Name       *string
	Class      *string
	Section    *string
	RollNumber *string
}

// NewService creates a new student Service instance
func NewService(db *mongo.Database) *Service {
	return &Service{
		db:       db,
		usersCol: db.Collection("users"),
	}
}

// List returns every student account, newest first.
func (s *Service) List(ctx context.Context) ([]shared.User, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.usersCol.Find(queryCtx, bson.M{"role": shared.RoleStudent}, findOptions)
	if err != nil {
		log.Printf("Error querying students: %v", err)
		return nil, status.Error(codes.Internal, "failed to retrieve students")
	}
	defer cursor.Close(queryCtx)

	students := []shared.User{}
	for cursor.Next(queryCtx) {
		var u shared.User
		if err := cursor.Decode(&u); err != nil {
			continue
		}
		students = append(students, u)
	}

	return students, nil
}

// Get resolves one student account by id.
func (s *Service) Get(ctx context.Context, id string) (*shared.User, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user shared.User
	err := s.usersCol.FindOne(queryCtx, bson.M{"_id": id}).Decode(&user)
	if err != nil || !user.IsStudent() {
		if err != nil && err != mongo.ErrNoDocuments {
			log.Printf("Error finding student %s: %v", id, err)
			return nil, status.Error(codes.Internal, "database error")
		}
		return nil, status.Error(codes.NotFound, "student not found")
	}

	return &user, nil
}

// Update applies a sparse profile patch and returns the updated account.
// A roll number change colliding with another student's fails with
// AlreadyExists.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*shared.User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	set := bson.M{"updated_at": time.Now()}
	if in.Name != nil {
		set["name"] = *in.Name
	}
	if in.Class != nil {
		set["class"] = *in.Class
	}
	if in.Section != nil {
		set["section"] = *in.Section
	}
	if in.RollNumber != nil {
		set["roll_number"] = *in.RollNumber
	}

	if _, err := s.usersCol.UpdateOne(queryCtx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, status.Error(codes.AlreadyExists, "roll number already exists")
		}
		log.Printf("Error updating student %s: %v", id, err)
		return nil, status.Error(codes.Internal, "failed to update student")
	}

	return s.Get(ctx, id)
}

// SetProfilePicture stores the served path of an uploaded profile picture.
func (s *Service) SetProfilePicture(ctx context.Context, id, path string) (*shared.User, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"profile_picture": path, "updated_at": time.Now()}}
	if _, err := s.usersCol.UpdateOne(queryCtx, bson.M{"_id": id}, update); err != nil {
		log.Printf("Error setting profile picture for %s: %v", id, err)
		return nil, status.Error(codes.Internal, "failed to update profile picture")
	}

	return s.Get(ctx, id)
}
