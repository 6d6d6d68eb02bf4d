package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// It follows the 12-factor app methodology by prioritizing environment variables.
type Config struct {
	Server  ServerConfig
	Mongo   MongoConfig
	S3      S3Config
	Redis   RedisConfig
	Engine  EngineConfig
	Caption CaptionConfig
	Auth    AuthConfig
}

type ServerConfig struct {
	Port        string
	Environment string
}

type MongoConfig struct {
	URI            string
	Database       string
	MinPoolSize    uint64
	MaxPoolSize    uint64
	MaxConnIdle    time.Duration
	ConnectTimeout time.Duration
}

type S3Config struct {
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	PublicBase string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type EngineConfig struct {
	Workers       int
	RembgEndpoint string
}

type CaptionConfig struct {
	Endpoint string
	Timeout  time.Duration
}

type AuthConfig struct {
	JWTSecret string
}

// LoadConfig loads configuration from environment variables,
// reading a .env file first when one is present.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGO_DATABASE", "imagevault"),
			MinPoolSize:    uint64(getEnvAsInt("MONGO_MIN_POOL_SIZE", 2)),
			MaxPoolSize:    uint64(getEnvAsInt("MONGO_MAX_POOL_SIZE", 100)),
			MaxConnIdle:    getEnvAsDuration("MONGO_MAX_CONN_IDLE", 5*time.Minute),
			ConnectTimeout: getEnvAsDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		},
		S3: S3Config{
			Region:     getEnv("AWS_REGION", "us-east-1"),
			Bucket:     getEnv("AWS_BUCKET", ""),
			AccessKey:  getEnv("AWS_ACCESS_KEY", ""),
			SecretKey:  getEnv("AWS_SECRET_KEY", ""),
			Endpoint:   getEnv("AWS_ENDPOINT", ""),
			PublicBase: getEnv("AWS_PUBLIC_BASE", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Engine: EngineConfig{
			Workers:       getEnvAsInt("ENGINE_WORKERS", 2),
			RembgEndpoint: getEnv("REMBG_ENDPOINT", "http://127.0.0.1:7000/api/remove"),
		},
		Caption: CaptionConfig{
			Endpoint: getEnv("INTERROGATE_API_URL", "http://127.0.0.1:7860/sdapi/v1/interrogate"),
			Timeout:  getEnvAsDuration("INTERROGATE_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
