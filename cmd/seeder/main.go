package main

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"srms/internal/grading"
	"srms/internal/shared"
)

// Default accounts created by the seeder
const (
	TeacherID    = "usr_seed_teacher"
	TeacherEmail = "teacher@school.com"
	TeacherPass  = "teacher123"

	StudentID1 = "usr_seed_student1" // Aarav Sharma, roll 2024001
	StudentID2 = "usr_seed_student2" // Diya Patel, roll 2024002

	CommonStudentPass = "student123"
)

// StudentSeed is one demo student account.
type StudentSeed struct {
	ID          string
	Name        string
	RollNumber  string
	Class       string
	Section     string
	DateOfBirth time.Time
}

// ResultSeed is one demo exam result.
type ResultSeed struct {
	ID        string
	StudentID string
	ExamName  string
	ExamDate  time.Time
	Remarks   string
	Subjects  []shared.SubjectEntry
}

func main() {
	log.Println("Starting Database Seeder...")

	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := shared.LoadAppConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer shared.DisconnectMongoDB(client)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := shared.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// --- 1. Seed Default Teacher ---
	seedTeacher(ctx, db, cfg.Security.BCryptCost)

	// --- 2. Seed Demo Students ---
	studentSeeds := []StudentSeed{
		{StudentID1, "Aarav Sharma", "2024001", "10", "A", time.Date(2009, 4, 12, 0, 0, 0, 0, time.UTC)},
		{StudentID2, "Diya Patel", "2024002", "10", "B", time.Date(2009, 8, 3, 0, 0, 0, 0, time.UTC)},
	}
	seedStudents(ctx, db, studentSeeds, cfg.Security.BCryptCost)

	// --- 3. Seed Demo Results ---
	resultSeeds := []ResultSeed{
		{
			ID: "res_seed_1", StudentID: StudentID1,
			ExamName: "Mid Term Examination", ExamDate: time.Now().AddDate(0, -2, 0),
			Remarks: "Good performance",
			Subjects: []shared.SubjectEntry{
				{Name: "Mathematics", MarksObtained: 85, TotalMarks: 100, Grade: "A"},
				{Name: "Science", MarksObtained: 78, TotalMarks: 100, Grade: "B+"},
				{Name: "English", MarksObtained: 92, TotalMarks: 100, Grade: "A+"},
			},
		},
		{
			ID: "res_seed_2", StudentID: StudentID2,
			ExamName: "Mid Term Examination", ExamDate: time.Now().AddDate(0, -2, 0),
			Remarks: "Needs improvement in Science",
			Subjects: []shared.SubjectEntry{
				{Name: "Mathematics", MarksObtained: 64, TotalMarks: 100, Grade: "B"},
				{Name: "Science", MarksObtained: 41, TotalMarks: 100, Grade: "C"},
				{Name: "English", MarksObtained: 73, TotalMarks: 100, Grade: "B+"},
			},
		},
	}
	seedResults(ctx, db, resultSeeds)

	log.Println("All data seeding completed successfully.")
}

// ============================================================================
// SEEDING FUNCTIONS
// ============================================================================

func seedTeacher(ctx context.Context, db *mongo.Database, bcryptCost int) {
	log.Println("--- Seeding Default Teacher ---")
	usersCol := db.Collection("users")

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(TeacherPass), bcryptCost)
	if err != nil {
		log.Fatalf("Error hashing teacher password: %v", err)
	}

	now := time.Now()
	teacher := shared.User{
		ID:           TeacherID,
		Name:         "Default Teacher",
		Email:        TeacherEmail,
		PasswordHash: string(hashedBytes),
		Role:         shared.RoleTeacher,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	filter := bson.M{"email": teacher.Email}
	update := bson.M{"$setOnInsert": teacher}
	opts := options.Update().SetUpsert(true)

	res, err := usersCol.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		log.Fatalf("Error seeding teacher: %v", err)
	}
	if res.UpsertedCount > 0 {
		log.Printf("Seeded teacher: %s", teacher.Email)
	} else {
		log.Printf("Teacher %s already exists, skipped", teacher.Email)
	}
}

func seedStudents(ctx context.Context, db *mongo.Database, seeds []StudentSeed, bcryptCost int) {
	log.Println("--- Seeding Demo Students ---")
	usersCol := db.Collection("users")

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(CommonStudentPass), bcryptCost)
	if err != nil {
		log.Fatalf("Error hashing student password: %v", err)
	}
	hashedPassword := string(hashedBytes)

	now := time.Now()
	for _, s := range seeds {
		student := shared.User{
			ID:           s.ID,
			Name:         s.Name,
			PasswordHash: hashedPassword,
			Role:         shared.RoleStudent,
			RollNumber:   s.RollNumber,
			DateOfBirth:  s.DateOfBirth,
			Class:        s.Class,
			Section:      s.Section,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		filter := bson.M{"roll_number": student.RollNumber}
		update := bson.M{"$setOnInsert": student}
		opts := options.Update().SetUpsert(true)

		if _, err := usersCol.UpdateOne(ctx, filter, update, opts); err != nil {
			log.Fatalf("Error seeding student %s: %v", s.RollNumber, err)
		}
		log.Printf("Seeded student: %s (roll %s)", s.Name, s.RollNumber)
	}
}

func seedResults(ctx context.Context, db *mongo.Database, seeds []ResultSeed) {
	log.Println("--- Seeding Demo Results ---")
	resultsCol := db.Collection("results")

	now := time.Now()
	for _, s := range seeds {
		agg := grading.Derive(s.Subjects)
		result := shared.Result{
			ID:           s.ID,
			StudentID:    s.StudentID,
			ExamName:     s.ExamName,
			ExamDate:     s.ExamDate,
			Subjects:     s.Subjects,
			TotalMarks:   agg.TotalMarks,
			Percentage:   agg.Percentage,
			OverallGrade: agg.OverallGrade,
			Remarks:      s.Remarks,
			CreatedBy:    TeacherID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		filter := bson.M{"_id": result.ID}
		update := bson.M{"$setOnInsert": result}
		opts := options.Update().SetUpsert(true)

		if _, err := resultsCol.UpdateOne(ctx, filter, update, opts); err != nil {
			log.Fatalf("Error seeding result %s: %v", s.ID, err)
		}
		log.Printf("Seeded result: %s for %s (%s, %s)", s.ExamName, s.StudentID, agg.Percentage, agg.OverallGrade)
	}
}
