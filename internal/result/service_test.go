package result

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"srms/internal/notify"
	"srms/internal/shared"
)

// recordingNotifier captures fan-out events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingNotifier) ResultChanged(event notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, 0, len(r.events))
	for _, e := range r.events {
		actions = append(actions, e.Action)
	}
	return actions
}

// initService connects to the test database and builds a real Service.
// Tests are skipped when MONGO_URI is not configured.
func initService(t *testing.T) (*Service, *mongo.Database, *recordingNotifier) {
	t.Helper()

	godotenv.Load("../../.env")
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}

	cfg := shared.DefaultMongoConfig(uri, "student_result_system_test")
	_, db, err := shared.ConnectMongoDB(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	notifier := &recordingNotifier{}
	return NewService(db, notifier), db, notifier
}

func TestResultService_Integration(t *testing.T) {
	svc, db, notifier := initService(t)
	ctx := context.Background()
	usersCol := db.Collection("users")
	resultsCol := db.Collection("results")

	teacher := shared.User{
		ID: "test_res_teacher", Name: "Result Teacher",
		Email: "res_teacher@example.com", Role: shared.RoleTeacher,
		CreatedAt: time.Now(),
	}
	student := shared.User{
		ID: "test_res_student", Name: "Result Student",
		RollNumber: "IT-RES-01", Class: "10", Section: "A",
		Role: shared.RoleStudent, CreatedAt: time.Now(),
	}
	otherStudent := shared.User{
		ID: "test_res_student2", Name: "Other Student",
		RollNumber: "IT-RES-02", Role: shared.RoleStudent,
		CreatedAt: time.Now(),
	}

	// Clean up before and after
	cleanup := func() {
		ids := []string{teacher.ID, student.ID, otherStudent.ID}
		usersCol.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
		resultsCol.DeleteMany(ctx, bson.M{"student_id": bson.M{"$in": []string{student.ID, otherStudent.ID}}})
	}
	cleanup()
	defer cleanup()

	for _, u := range []shared.User{teacher, student, otherStudent} {
		if _, err := usersCol.InsertOne(ctx, u); err != nil {
			t.Fatalf("Failed to insert test user %s: %v", u.ID, err)
		}
	}

	examDate := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	var resultID string

	// --- 1. Create With Subjects ---
	t.Run("Create Derives Aggregates", func(t *testing.T) {
		created, err := svc.Create(ctx, &teacher, CreateInput{
			StudentID:    student.ID,
			ExamName:     "Mid Term",
			ExamDate:     examDate,
			SubjectsJSON: `[{"name":"Math","marks_obtained":80,"total_marks":100},{"name":"Science","marks_obtained":60,"total_marks":100}]`,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if created.TotalMarks != 140 || created.Percentage != "70.00" || created.OverallGrade != "B+" {
			t.Errorf("Unexpected aggregates: total=%v pct=%v grade=%v",
				created.TotalMarks, created.Percentage, created.OverallGrade)
		}
		if created.CreatedBy != teacher.ID {
			t.Errorf("Expected creator %s, got %s", teacher.ID, created.CreatedBy)
		}
		resultID = created.ID
	})

	// --- 2. Create Without Subjects ---
	t.Run("Create Without Subjects Keeps Neutral Defaults", func(t *testing.T) {
		created, err := svc.Create(ctx, &teacher, CreateInput{
			StudentID: student.ID,
			ExamName:  "Attachment Only",
			ExamDate:  examDate,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if created.TotalMarks != 0 || created.Percentage != shared.PercentageZero || created.OverallGrade != shared.GradeNotApplicable {
			t.Errorf("Expected neutral defaults, got: total=%v pct=%v grade=%v",
				created.TotalMarks, created.Percentage, created.OverallGrade)
		}
	})

	// --- 3. Malformed Subjects Payload ---
	t.Run("Create Malformed Subjects Degrades", func(t *testing.T) {
		created, err := svc.Create(ctx, &teacher, CreateInput{
			StudentID:    student.ID,
			ExamName:     "Broken Payload",
			ExamDate:     examDate,
			SubjectsJSON: `{not json`,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if len(created.Subjects) != 0 || created.OverallGrade != shared.GradeNotApplicable {
			t.Errorf("Expected no subjects and N/A grade, got: %+v", created)
		}
	})

	// --- 4. Create For Unknown Or Non-Student Target ---
	t.Run("Create Unknown Student", func(t *testing.T) {
		_, err := svc.Create(ctx, &teacher, CreateInput{
			StudentID: "usr_does_not_exist",
			ExamName:  "Mid Term",
			ExamDate:  examDate,
		})
		if status.Code(err) != codes.NotFound {
			t.Errorf("Expected NotFound for unknown student, got: %v", err)
		}
	})

	t.Run("Create Targeting Teacher Account", func(t *testing.T) {
		_, err := svc.Create(ctx, &teacher, CreateInput{
			StudentID: teacher.ID,
			ExamName:  "Mid Term",
			ExamDate:  examDate,
		})
		if status.Code(err) != codes.NotFound {
			t.Errorf("Expected NotFound when target is not a student, got: %v", err)
		}
	})

	// --- 5. Listing And Ownership ---
	t.Run("ListAll Resolves Identities", func(t *testing.T) {
		all, err := svc.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		var found bool
		for _, r := range all {
			if r.ID == resultID {
				found = true
				if r.Student == nil || r.Student.RollNumber != student.RollNumber {
					t.Errorf("Expected resolved student summary, got: %+v", r.Student)
				}
				if r.Creator == nil || r.Creator.Email != teacher.Email {
					t.Errorf("Expected resolved creator summary, got: %+v", r.Creator)
				}
			}
		}
		if !found {
			t.Errorf("Created result %s not in ListAll", resultID)
		}
	})

	t.Run("Student Lists Own Results", func(t *testing.T) {
		results, err := svc.ListForStudent(ctx, &student, "")
		if err != nil {
			t.Fatalf("ListForStudent failed: %v", err)
		}
		if len(results) != 3 {
			t.Errorf("Expected 3 results for %s, got %d", student.ID, len(results))
		}
	})

	t.Run("Student Denied Other Results", func(t *testing.T) {
		_, err := svc.ListForStudent(ctx, &otherStudent, student.ID)
		if status.Code(err) != codes.PermissionDenied {
			t.Errorf("Expected PermissionDenied, got: %v", err)
		}
	})

	// --- 6. Update ---
	t.Run("Update Recomputes Aggregates", func(t *testing.T) {
		subjects := []shared.SubjectEntry{
			{Name: "Math", MarksObtained: 95, TotalMarks: 100},
		}
		updated, err := svc.Update(ctx, resultID, UpdateInput{Subjects: &subjects})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.TotalMarks != 95 || updated.Percentage != "95.00" || updated.OverallGrade != "A+" {
			t.Errorf("Unexpected aggregates after update: total=%v pct=%v grade=%v",
				updated.TotalMarks, updated.Percentage, updated.OverallGrade)
		}
		if updated.ExamName != "Mid Term" {
			t.Errorf("Untouched field changed: %s", updated.ExamName)
		}
	})

	t.Run("Update Empty Subject List", func(t *testing.T) {
		subjects := []shared.SubjectEntry{}
		updated, err := svc.Update(ctx, resultID, UpdateInput{Subjects: &subjects})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.TotalMarks != 0 || updated.Percentage != "0.00" || updated.OverallGrade != "F" {
			t.Errorf("Unexpected aggregates for empty list: total=%v pct=%v grade=%v",
				updated.TotalMarks, updated.Percentage, updated.OverallGrade)
		}
	})

	t.Run("Update Missing Result", func(t *testing.T) {
		name := "Renamed"
		_, err := svc.Update(ctx, "res_does_not_exist", UpdateInput{ExamName: &name})
		if status.Code(err) != codes.NotFound {
			t.Errorf("Expected NotFound, got: %v", err)
		}
	})

	// --- 7. Delete ---
	t.Run("Delete", func(t *testing.T) {
		if err := svc.Delete(ctx, resultID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := svc.Get(ctx, resultID); status.Code(err) != codes.NotFound {
			t.Errorf("Expected NotFound after delete, got: %v", err)
		}
	})

	t.Run("Delete Missing Result", func(t *testing.T) {
		err := svc.Delete(ctx, resultID)
		if status.Code(err) != codes.NotFound {
			t.Errorf("Expected NotFound for second delete, got: %v", err)
		}
	})

	// --- 8. Notification Fan-Out ---
	t.Run("Mutations Notified", func(t *testing.T) {
		actions := notifier.actions()
		var created, updated, deleted int
		for _, a := range actions {
			switch a {
			case "created":
				created++
			case "updated":
				updated++
			case "deleted":
				deleted++
			}
		}
		if created != 3 || updated != 2 || deleted != 1 {
			t.Errorf("Unexpected notification counts: created=%d updated=%d deleted=%d",
				created, updated, deleted)
		}
	})
}
