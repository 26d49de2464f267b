package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/OKpoorav/DietKaro-sub002/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	Env      string
	HTTPAddr string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	JWTSecret string

	AWSRegion    string
	S3Bucket     string
	PhotoBaseURL string
	SNSFCMArn    string

	Location          *time.Location
	BatchWorkers      int
	AdherenceCacheTTL time.Duration
	Scoring           ScoringWeights
}

// Load reads the environment, after merging a .env file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:          getEnv("ENV", "development"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBUser:       getEnv("DB_USER", "postgres"),
		DBPassword:   os.Getenv("DB_PASSWORD"),
		DBName:       getEnv("DB_NAME", "dietkaro"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBSSLMode:    getEnv("DB_SSLMODE", "disable"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		AWSRegion:    getEnv("AWS_REGION", "ap-south-1"),
		S3Bucket:     os.Getenv("S3_BUCKET"),
		PhotoBaseURL: os.Getenv("PHOTO_BASE_URL"),
		SNSFCMArn:    os.Getenv("SNS_FCM_ARN"),
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	cfg.BatchWorkers, err = strconv.Atoi(getEnv("BATCH_WORKERS", "8"))
	if err != nil || cfg.BatchWorkers < 1 {
		return nil, fmt.Errorf("BATCH_WORKERS must be a positive integer")
	}

	cfg.AdherenceCacheTTL, err = time.ParseDuration(getEnv("ADHERENCE_CACHE_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADHERENCE_CACHE_TTL: %w", err)
	}

	cfg.Scoring = DefaultScoringWeights()
	if path := os.Getenv("SCORING_CONFIG"); path != "" {
		if cfg.Scoring, err = LoadScoringWeights(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// OpenDB connects to Postgres. It does not migrate.
func OpenDB(cfg *Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	return db, nil
}

// Migrate creates or updates the tables owned by this service.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.FoodItem{},
		&models.DietPlan{},
		&models.PlannedMeal{},
		&models.PlannedMealItem{},
		&models.MealLog{},
		&models.Alert{},
		&models.UserDevice{},
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
