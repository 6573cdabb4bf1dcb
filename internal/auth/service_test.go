package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"srms/internal/shared"
)

// initService connects to the test database and builds a real Service.
// Tests are skipped when MONGO_URI is not configured.
func initService(t *testing.T) (*Service, *mongo.Database) {
	t.Helper()

	godotenv.Load("../../.env")
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}

	cfg := &shared.AppConfig{
		Environment: "test",
		MongoDB:     *shared.DefaultMongoConfig(uri, "student_result_system_test"),
		Security: shared.SecurityConfig{
			JWTSecret:          "integration-test-secret",
			JWTExpirationHours: 1,
			BCryptCost:         4, // minimal cost keeps the test fast
		},
	}

	_, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	return NewService(db, cfg), db
}

func TestAuthService_Integration(t *testing.T) {
	svc, db := initService(t)
	ctx := context.Background()
	usersCol := db.Collection("users")

	// Clean up before and after
	cleanup := func() {
		usersCol.DeleteMany(ctx, bson.M{"roll_number": bson.M{"$in": []string{"IT-1001", "IT-1002"}}})
		usersCol.DeleteMany(ctx, bson.M{"email": "it_teacher@example.com"})
	}
	cleanup()
	defer cleanup()

	var studentID string

	// --- 1. Student Registration ---
	t.Run("Register Student", func(t *testing.T) {
		user, token, err := svc.RegisterStudent(ctx, RegisterStudentInput{
			Name:        "Integration Student",
			Password:    "secret123",
			RollNumber:  "IT-1001",
			DateOfBirth: mustDate(t, "2008-05-20"),
		})
		if err != nil {
			t.Fatalf("RegisterStudent failed: %v", err)
		}
		if token == "" || user.Role != shared.RoleStudent {
			t.Errorf("Expected student account with token, got: %+v", user)
		}
		studentID = user.ID
	})

	// --- 2. Duplicate Roll Number ---
	t.Run("Register Duplicate Roll Number", func(t *testing.T) {
		_, _, err := svc.RegisterStudent(ctx, RegisterStudentInput{
			Name:        "Another Student",
			Password:    "secret456",
			RollNumber:  "IT-1001",
			DateOfBirth: mustDate(t, "2008-06-21"),
		})
		if status.Code(err) != codes.AlreadyExists {
			t.Errorf("Expected AlreadyExists for duplicate roll number, got: %v", err)
		}
	})

	// --- 3. Teacher Registration and Duplicate Email ---
	t.Run("Register Teacher", func(t *testing.T) {
		user, token, err := svc.RegisterTeacher(ctx, RegisterTeacherInput{
			Name:     "Integration Teacher",
			Email:    "it_teacher@example.com",
			Password: "secret123",
		})
		if err != nil {
			t.Fatalf("RegisterTeacher failed: %v", err)
		}
		if token == "" || user.Role != shared.RoleTeacher {
			t.Errorf("Expected teacher account with token, got: %+v", user)
		}

		_, _, err = svc.RegisterTeacher(ctx, RegisterTeacherInput{
			Name:     "Duplicate Teacher",
			Email:    "it_teacher@example.com",
			Password: "secret789",
		})
		if status.Code(err) != codes.AlreadyExists {
			t.Errorf("Expected AlreadyExists for duplicate email, got: %v", err)
		}
	})

	// --- 4. Login ---
	t.Run("Login Student By Roll Number", func(t *testing.T) {
		user, token, err := svc.Login(ctx, "IT-1001", "secret123", shared.RoleStudent)
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if token == "" || user.ID != studentID {
			t.Errorf("Expected token for %s, got user %+v", studentID, user)
		}
	})

	t.Run("Login Invalid Password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "IT-1001", "wrongpassword", shared.RoleStudent)
		if status.Code(err) != codes.Unauthenticated {
			t.Errorf("Expected Unauthenticated for wrong password, got: %v", err)
		}
	})

	t.Run("Login Wrong Role", func(t *testing.T) {
		// Student roll number presented against the teacher filter.
		_, _, err := svc.Login(ctx, "IT-1001", "secret123", shared.RoleTeacher)
		if status.Code(err) != codes.Unauthenticated {
			t.Errorf("Expected Unauthenticated for role mismatch, got: %v", err)
		}
	})

	// --- 5. Token Verification ---
	t.Run("Verify Token", func(t *testing.T) {
		_, token, err := svc.Login(ctx, "IT-1001", "secret123", shared.RoleStudent)
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		user, err := svc.VerifyToken(ctx, token)
		if err != nil {
			t.Fatalf("VerifyToken failed: %v", err)
		}
		if user.ID != studentID {
			t.Errorf("Expected user %s, got %s", studentID, user.ID)
		}
	})

	t.Run("Verify Garbage Token", func(t *testing.T) {
		_, err := svc.VerifyToken(ctx, "not.a.token")
		if status.Code(err) != codes.Unauthenticated {
			t.Errorf("Expected Unauthenticated for garbage token, got: %v", err)
		}
	})
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return parsed
}
