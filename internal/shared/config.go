// ============================================================================
// internal/shared/config.go
// Configuration management and environment variable helpers
// ============================================================================

package shared

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ============================================================================
// Configuration Structs
// ============================================================================

// AppConfig holds the full server configuration.
type AppConfig struct {
	Environment string // development, staging, production
	HTTPPort    string

	MongoDB  MongoConfig
	Security SecurityConfig
	CORS     CORSConfig
	Upload   UploadConfig
	NATS     NATSConfig
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	JWTSecret          string
	JWTExpirationHours int
	BCryptCost         int // BCrypt hashing cost (10-12 recommended)
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int // in seconds
}

// UploadConfig holds attachment/profile-picture upload configuration
type UploadConfig struct {
	Dir          string // directory attachments are written to and served from
	MaxImageSize int64  // profile picture size cap in bytes
	MaxPDFSize   int64  // result attachment size cap in bytes
}

// NATSConfig holds notification fan-out configuration. An empty URL
// disables publishing.
type NATSConfig struct {
	URL     string
	Subject string
}

// ============================================================================
// Configuration Loading Functions
// ============================================================================

// LoadEnv loads environment variables from a .env file
func LoadEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil {
		log.Printf("Warning: %s file not found, using system environment variables", envFile)
		return err
	}

	log.Printf("Successfully loaded environment from %s", envFile)
	return nil
}

// LoadAppConfig loads the server configuration from the environment
func LoadAppConfig() (*AppConfig, error) {
	config := &AppConfig{
		Environment: GetEnv("ENVIRONMENT", "development"),
		HTTPPort:    GetEnv("HTTP_PORT", "5000"),
	}

	mongoURI := GetEnv("MONGO_URI", "")
	if mongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable is required")
	}

	config.MongoDB = MongoConfig{
		URI:            mongoURI,
		Database:       GetEnv("MONGO_DB_NAME", "student_result_system"),
		ConnectTimeout: GetDurationEnv("MONGO_CONNECT_TIMEOUT", 20*time.Second),
		MaxPoolSize:    uint64(GetIntEnv("MONGO_MAX_POOL_SIZE", 50)),
		MinPoolSize:    uint64(GetIntEnv("MONGO_MIN_POOL_SIZE", 10)),
		MaxIdleTime:    GetDurationEnv("MONGO_MAX_IDLE_TIME", 30*time.Second),
	}

	config.Security = SecurityConfig{
		JWTSecret:          GetEnv("JWT_SECRET", ""),
		JWTExpirationHours: GetIntEnv("JWT_EXPIRATION_HOURS", 24),
		BCryptCost:         GetIntEnv("BCRYPT_COST", 10),
	}
	if config.Security.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	config.CORS = CORSConfig{
		AllowedOrigins:   GetStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		AllowedMethods:   GetStringSliceEnv("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders:   GetStringSliceEnv("CORS_ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"}),
		AllowCredentials: GetBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           GetIntEnv("CORS_MAX_AGE", 300),
	}

	config.Upload = UploadConfig{
		Dir:          GetEnv("UPLOAD_DIR", "uploads"),
		MaxImageSize: int64(GetIntEnv("UPLOAD_MAX_IMAGE_SIZE", 5*1000*1000)),
		MaxPDFSize:   int64(GetIntEnv("UPLOAD_MAX_PDF_SIZE", 10*1024*1024)),
	}

	config.NATS = NATSConfig{
		URL:     GetEnv("NATS_URL", ""),
		Subject: GetEnv("NATS_SUBJECT", "results.updated"),
	}

	return config, nil
}

// ValidateAppConfig validates the loaded configuration
func ValidateAppConfig(config *AppConfig) error {
	if config.HTTPPort == "" {
		return fmt.Errorf("HTTP port is required")
	}

	if config.MongoDB.URI == "" {
		return fmt.Errorf("MongoDB URI is required")
	}

	if config.MongoDB.Database == "" {
		return fmt.Errorf("MongoDB database name is required")
	}

	if config.Upload.Dir == "" {
		return fmt.Errorf("upload directory is required")
	}

	return nil
}

// ============================================================================
// Environment Variable Helper Functions
// ============================================================================

// GetEnv retrieves an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetIntEnv retrieves an integer environment variable or returns a default value
func GetIntEnv(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// GetBoolEnv retrieves a boolean environment variable or returns a default value
func GetBoolEnv(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s: %s, using default: %t", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// GetDurationEnv retrieves a duration environment variable or returns a default value.
// Supports format like "30s", "5m", "1h".
func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s: %s, using default: %v", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// GetStringSliceEnv retrieves a comma-separated string list or returns a default value
func GetStringSliceEnv(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}

// ============================================================================
// Environment-Specific Configuration
// ============================================================================

// IsDevelopment checks if running in development environment
func IsDevelopment(config *AppConfig) bool {
	return config.Environment == "development"
}

// IsProduction checks if running in production environment
func IsProduction(config *AppConfig) bool {
	return config.Environment == "production"
}

// ============================================================================
// Configuration Display (for debugging)
// ============================================================================

// PrintConfig prints configuration (sanitized) for debugging
func PrintConfig(config *AppConfig) {
	log.Println("=== Server Configuration ===")
	log.Printf("Environment: %s", config.Environment)
	log.Printf("HTTP Port: %s", config.HTTPPort)
	log.Println("=== MongoDB Configuration ===")
	log.Printf("Database: %s", config.MongoDB.Database)
	log.Printf("Max Pool Size: %d", config.MongoDB.MaxPoolSize)
	log.Printf("Min Pool Size: %d", config.MongoDB.MinPoolSize)
	log.Println("=== Security Configuration ===")
	log.Printf("JWT Expiration: %d hours", config.Security.JWTExpirationHours)
	log.Printf("BCrypt Cost: %d", config.Security.BCryptCost)
	log.Println("=== Upload Configuration ===")
	log.Printf("Upload Dir: %s", config.Upload.Dir)
	log.Printf("Max Image Size: %d bytes", config.Upload.MaxImageSize)
	log.Println("=== Notification Configuration ===")
	if config.NATS.URL == "" {
		log.Println("NATS: disabled")
	} else {
		log.Printf("NATS Subject: %s", config.NATS.Subject)
	}
	log.Println("=============================")
}
