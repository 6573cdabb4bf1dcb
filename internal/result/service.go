package result

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"srms/internal/grading"
	"srms/internal/notify"
	"srms/internal/shared"
)

// Service is the result lifecycle controller: the authorized CRUD surface
// over result documents. Aggregate fields are derived through the grading
// package; after every successful mutation the notifier is signalled.
type Service struct {
	db         *mongo.Database
	resultsCol *mongo.Collection
	usersCol   *mongo.Collection
	notifier   notify.Notifier
}

// NewService creates a new result Service instance
func NewService(db *mongo.Database, notifier notify.Notifier) *Service {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Service{
		db:         db,
		resultsCol: db.Collection("results"),
		usersCol:   db.Collection("users"),
		notifier:   notifier,
	}
}

// CreateInput carries the fields of a result creation request. SubjectsJSON
// is the raw form field; a malformed value degrades to "no subjects" rather
// than failing the creation.
type CreateInput struct {
	StudentID    string
	ExamName     string
	ExamDate     time.Time
	Remarks      string
	PDFPath      string
	SubjectsJSON string
}

// UpdateInput is a sparse patch: only non-nil fields are overwritten.
// A supplied subject list (even an empty one) recomputes the aggregates.
type UpdateInput struct {
	ExamName *string
	ExamDate *time.Time
	Remarks  *string
	Subjects *[]shared.SubjectEntry
}

// Create persists a new result for an existing student, stamped with the
// creating account. Aggregates are derived when subject entries are
// supplied; otherwise the neutral defaults are stored.
func (s *Service) Create(ctx context.Context, creator *shared.User, in CreateInput) (*shared.Result, error) {
	if in.StudentID == "" || in.ExamName == "" {
		return nil, status.Error(codes.InvalidArgument, "student id and exam name are required")
	}
	if in.ExamDate.IsZero() {
		return nil, status.Error(codes.InvalidArgument, "exam date is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var student shared.User
	err := s.usersCol.FindOne(queryCtx, bson.M{"_id": in.StudentID}).Decode(&student)
	if err != nil || !student.IsStudent() {
		if err != nil && err != mongo.ErrNoDocuments {
			log.Printf("Error finding student %s: %v", in.StudentID, err)
			return nil, status.Error(codes.Internal, "database error")
		}
		return nil, status.Error(codes.NotFound, "student not found")
	}

	now := time.Now()
	result := shared.Result{
		ID:           shared.GenerateResultID(),
		StudentID:    in.StudentID,
		ExamName:     in.ExamName,
		ExamDate:     in.ExamDate,
		PDFPath:      in.PDFPath,
		Remarks:      in.Remarks,
		Subjects:     []shared.SubjectEntry{},
		TotalMarks:   0,
		Percentage:   shared.PercentageZero,
		OverallGrade: shared.GradeNotApplicable,
		CreatedBy:    creator.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if subjects := parseSubjects(in.SubjectsJSON); len(subjects) > 0 {
		agg := grading.Derive(subjects)
		result.Subjects = subjects
		result.TotalMarks = agg.TotalMarks
		result.Percentage = agg.Percentage
		result.OverallGrade = agg.OverallGrade
	}

	if _, err := s.resultsCol.InsertOne(queryCtx, result); err != nil {
		log.Printf("Error creating result for student %s: %v", in.StudentID, err)
		return nil, status.Error(codes.Internal, "failed to create result")
	}

	s.notifier.ResultChanged(notify.Event{
		Action: "created", ResultID: result.ID, StudentID: result.StudentID, At: now,
	})

	return &result, nil
}

// ListAll returns every result, newest-created-first, with the owning
// student's and the creator's identity fields resolved inline.
func (s *Service) ListAll(ctx context.Context) ([]shared.ResultWithDetails, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.resultsCol.Find(queryCtx, bson.M{}, findOptions)
	if err != nil {
		log.Printf("Error querying results: %v", err)
		return nil, status.Error(codes.Internal, "failed to retrieve results")
	}
	defer cursor.Close(queryCtx)

	users := newUserResolver(s.usersCol)
	results := []shared.ResultWithDetails{}
	for cursor.Next(queryCtx) {
		var r shared.Result
		if err := cursor.Decode(&r); err != nil {
			continue
		}
		results = append(results, shared.ResultWithDetails{
			Result:  r,
			Student: users.studentSummary(queryCtx, r.StudentID),
			Creator: users.teacherSummary(queryCtx, r.CreatedBy),
		})
	}

	return results, nil
}

// ListForStudent returns one student's results, newest-exam-date-first.
// When studentID is empty the caller's own identity is used. A student may
// only request their own results; teachers and admins may request any.
func (s *Service) ListForStudent(ctx context.Context, caller *shared.User, studentID string) ([]shared.ResultWithDetails, error) {
	if studentID == "" {
		studentID = caller.ID
	}
	if caller.IsStudent() && studentID != caller.ID {
		return nil, status.Error(codes.PermissionDenied, "students may only view their own results")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "exam_date", Value: -1}})
	cursor, err := s.resultsCol.Find(queryCtx, bson.M{"student_id": studentID}, findOptions)
	if err != nil {
		log.Printf("Error querying results for student %s: %v", studentID, err)
		return nil, status.Error(codes.Internal, "failed to retrieve results")
	}
	defer cursor.Close(queryCtx)

	users := newUserResolver(s.usersCol)
	results := []shared.ResultWithDetails{}
	for cursor.Next(queryCtx) {
		var r shared.Result
		if err := cursor.Decode(&r); err != nil {
			continue
		}
		results = append(results, shared.ResultWithDetails{
			Result:  r,
			Student: users.studentSummary(queryCtx, r.StudentID),
		})
	}

	return results, nil
}

// Get resolves a single result by id with identities attached.
func (s *Service) Get(ctx context.Context, id string) (*shared.ResultWithDetails, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var r shared.Result
	err := s.resultsCol.FindOne(queryCtx, bson.M{"_id": id}).Decode(&r)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, status.Error(codes.NotFound, "result not found")
		}
		log.Printf("Error finding result %s: %v", id, err)
		return nil, status.Error(codes.Internal, "database error")
	}

	users := newUserResolver(s.usersCol)
	return &shared.ResultWithDetails{
		Result:  r,
		Student: users.studentSummary(queryCtx, r.StudentID),
		Creator: users.teacherSummary(queryCtx, r.CreatedBy),
	}, nil
}

// Update applies a sparse patch. A supplied subject list recomputes the
// aggregates with the same derivation as creation; fields absent from the
// patch keep their prior values. Last write wins on concurrent updates.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*shared.Result, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var existing shared.Result
	err := s.resultsCol.FindOne(queryCtx, bson.M{"_id": id}).Decode(&existing)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, status.Error(codes.NotFound, "result not found")
		}
		log.Printf("Error finding result %s: %v", id, err)
		return nil, status.Error(codes.Internal, "database error")
	}

	set := bson.M{"updated_at": time.Now()}
	if in.ExamName != nil {
		set["exam_name"] = *in.ExamName
	}
	if in.ExamDate != nil {
		set["exam_date"] = *in.ExamDate
	}
	if in.Remarks != nil {
		set["remarks"] = *in.Remarks
	}
	if in.Subjects != nil {
		agg := grading.Derive(*in.Subjects)
		set["subjects"] = *in.Subjects
		set["total_marks"] = agg.TotalMarks
		set["percentage"] = agg.Percentage
		set["overall_grade"] = agg.OverallGrade
	}

	if _, err := s.resultsCol.UpdateOne(queryCtx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		log.Printf("Error updating result %s: %v", id, err)
		return nil, status.Error(codes.Internal, "failed to update result")
	}

	var updated shared.Result
	if err := s.resultsCol.FindOne(queryCtx, bson.M{"_id": id}).Decode(&updated); err != nil {
		return nil, status.Error(codes.Internal, "failed to reload result")
	}

	s.notifier.ResultChanged(notify.Event{
		Action: "updated", ResultID: updated.ID, StudentID: updated.StudentID, At: updated.UpdatedAt,
	})

	return &updated, nil
}

// Delete removes a result by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := s.resultsCol.DeleteOne(queryCtx, bson.M{"_id": id})
	if err != nil {
		log.Printf("Error deleting result %s: %v", id, err)
		return status.Error(codes.Internal, "failed to delete result")
	}
	if res.DeletedCount == 0 {
		return status.Error(codes.NotFound, "result not found")
	}

	s.notifier.ResultChanged(notify.Event{
		Action: "deleted", ResultID: id, At: time.Now(),
	})

	return nil
}

// ============================================================================
// Helper Functions
// ============================================================================

// parseSubjects decodes the raw subjects form field. A malformed value
// proceeds without subjects instead of failing the whole request.
func parseSubjects(raw string) []shared.SubjectEntry {
	if raw == "" {
		return nil
	}

	var subjects []shared.SubjectEntry
	if err := json.Unmarshal([]byte(raw), &subjects); err != nil {
		log.Printf("Warning: unparseable subjects payload, proceeding without subjects: %v", err)
		return nil
	}
	return subjects
}

// userResolver caches user lookups while a single listing is assembled, so
// repeated references to the same account hit the database once.
type userResolver struct {
	usersCol *mongo.Collection
	cache    map[string]*shared.User
}

func newUserResolver(usersCol *mongo.Collection) *userResolver {
	return &userResolver{usersCol: usersCol, cache: make(map[string]*shared.User)}
}

func (r *userResolver) lookup(ctx context.Context, id string) *shared.User {
	if id == "" {
		return nil
	}
	if u, ok := r.cache[id]; ok {
		return u
	}

	var user shared.User
	if err := r.usersCol.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		r.cache[id] = nil
		return nil
	}
	r.cache[id] = &user
	return &user
}

func (r *userResolver) studentSummary(ctx context.Context, id string) *shared.StudentSummary {
	u := r.lookup(ctx, id)
	if u == nil {
		return nil
	}
	return &shared.StudentSummary{
		ID: u.ID, Name: u.Name, RollNumber: u.RollNumber, Class: u.Class, Section: u.Section,
	}
}

func (r *userResolver) teacherSummary(ctx context.Context, id string) *shared.TeacherSummary {
	u := r.lookup(ctx, id)
	if u == nil {
		return nil
	}
	return &shared.TeacherSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
