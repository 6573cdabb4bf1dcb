package auth

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"srms/internal/shared"
)

// Service implements account registration, login and token verification.
type Service struct {
	db       *mongo.Database
	config   *shared.AppConfig
	usersCol *mongo.Collection
}

// Claims carried in the signed JWT.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RegisterStudentInput is the student self-registration payload.
type RegisterStudentInput struct {
	Name        string
	Password    string
	RollNumber  string
	DateOfBirth time.Time
}

// RegisterTeacherInput is the teacher registration payload.
type RegisterTeacherInput struct {
	Name     string
	Email    string
	Password string
}

// NewService creates a new auth Service instance
func NewService(db *mongo.Database, config *shared.AppConfig) *Service {
	return &Service{
		db:       db,
		config:   config,
		usersCol: db.Collection("users"),
	}
}

// RegisterStudent creates a student account and issues a token.
// A duplicate roll number fails with AlreadyExists.
func (s *Service) RegisterStudent(ctx context.Context, in RegisterStudentInput) (*shared.User, string, error) {
	if in.Name == "" || in.Password == "" || in.RollNumber == "" {
		return nil, "", status.Error(codes.InvalidArgument, "name, password and roll number are required")
	}
	if in.DateOfBirth.IsZero() {
		return nil, "", status.Error(codes.InvalidArgument, "date of birth is required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, err := s.usersCol.CountDocuments(queryCtx, bson.M{"roll_number": in.RollNumber})
	if err != nil {
		log.Printf("Error checking roll number %s: %v", in.RollNumber, err)
		return nil, "", status.Error(codes.Internal, "database error")
	}
	if count > 0 {
		return nil, "", status.Error(codes.AlreadyExists, "roll number already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.config.Security.BCryptCost)
	if err != nil {
		return nil, "", status.Error(codes.Internal, "failed to process password")
	}

	user := shared.User{
		ID:           shared.GenerateUserID(),
		Name:         in.Name,
		PasswordHash: string(hash),
		Role:         shared.RoleStudent,
		RollNumber:   in.RollNumber,
		DateOfBirth:  in.DateOfBirth,
		CreatedAt:    time.Now(),
	}

	if _, err := s.usersCol.InsertOne(queryCtx, user); err != nil {
		// The sparse unique index catches races the count check missed.
		if mongo.IsDuplicateKeyError(err) {
			return nil, "", status.Error(codes.AlreadyExists, "roll number already exists")
		}
		log.Printf("Error creating student %s: %v", in.RollNumber, err)
		return nil, "", status.Error(codes.Internal, "failed to create account")
	}

	token, _, err := s.generateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", status.Error(codes.Internal, "failed to generate token")
	}

	return &user, token, nil
}

// RegisterTeacher creates a teacher account and issues a token.
// A duplicate email fails with AlreadyExists.
func (s *Service) RegisterTeacher(ctx context.Context, in RegisterTeacherInput) (*shared.User, string, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, "", status.Error(codes.InvalidArgument, "name, email and password are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	count, err := s.usersCol.CountDocuments(queryCtx, bson.M{"email": in.Email})
	if err != nil {
		log.Printf("Error checking email %s: %v", in.Email, err)
		return nil, "", status.Error(codes.Internal, "database error")
	}
	if count > 0 {
		return nil, "", status.Error(codes.AlreadyExists, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.config.Security.BCryptCost)
	if err != nil {
		return nil, "", status.Error(codes.Internal, "failed to process password")
	}

	user := shared.User{
		ID:           shared.GenerateUserID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         shared.RoleTeacher,
		CreatedAt:    time.Now(),
	}

	if _, err := s.usersCol.InsertOne(queryCtx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, "", status.Error(codes.AlreadyExists, "email already registered")
		}
		log.Printf("Error creating teacher %s: %v", in.Email, err)
		return nil, "", status.Error(codes.Internal, "failed to create account")
	}

	token, _, err := s.generateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", status.Error(codes.Internal, "failed to generate token")
	}

	return &user, token, nil
}

// Login authenticates by role-specific identifier: students log in with
// their roll number, teachers with their email.
func (s *Service) Login(ctx context.Context, identifier, password, role string) (*shared.User, string, error) {
	if identifier == "" || password == "" || role == "" {
		return nil, "", status.Error(codes.InvalidArgument, "identifier, password and role are required")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var filter bson.M
	switch role {
	case shared.RoleStudent:
		filter = bson.M{"roll_number": identifier, "role": shared.RoleStudent}
	case shared.RoleTeacher:
		filter = bson.M{"email": identifier, "role": shared.RoleTeacher}
	default:
		return nil, "", status.Error(codes.InvalidArgument, "invalid role")
	}

	var user shared.User
	err := s.usersCol.FindOne(queryCtx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, "", status.Error(codes.Unauthenticated, "invalid credentials")
		}
		log.Printf("Error finding user %s: %v", identifier, err)
		return nil, "", status.Error(codes.Internal, "database error")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", status.Error(codes.Unauthenticated, "invalid credentials")
	}

	token, _, err := s.generateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", status.Error(codes.Internal, "failed to generate token")
	}

	return &user, token, nil
}

// GetUser resolves an account by id.
func (s *Service) GetUser(ctx context.Context, id string) (*shared.User, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user shared.User
	err := s.usersCol.FindOne(queryCtx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, status.Error(codes.NotFound, "user not found")
		}
		return nil, status.Error(codes.Internal, "database error")
	}

	return &user, nil
}

// VerifyToken checks the token signature and expiry and resolves the
// calling account. Every failure maps to Unauthenticated so business logic
// never runs for an unverified caller.
func (s *Service) VerifyToken(ctx context.Context, tokenString string) (*shared.User, error) {
	token, claims, err := s.parseToken(tokenString)
	if err != nil || !token.Valid {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user shared.User
	if err := s.usersCol.FindOne(queryCtx, bson.M{"_id": claims.UserID}).Decode(&user); err != nil {
		return nil, status.Error(codes.Unauthenticated, "user not found")
	}

	return &user, nil
}

// ============================================================================
// Internal Helpers
// ============================================================================

// generateToken creates a signed JWT for the account.
func (s *Service) generateToken(userID, role string) (string, time.Time, error) {
	expirationTime := time.Now().Add(time.Duration(s.config.Security.JWTExpirationHours) * time.Hour)

	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			// Unique ID (jti) keeps tokens distinct even when issued within
			// the same second.
			ID:        shared.GenerateID("jti"),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "student-result-system",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Security.JWTSecret))

	return tokenString, expirationTime, err
}

// parseToken validates the JWT signature and extracts claims
func (s *Service) parseToken(tokenString string) (*jwt.Token, *Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Security.JWTSecret), nil
	})

	return token, claims, err
}
