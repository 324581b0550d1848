package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var Conf *Config

type (
	ServerConfig struct {
		Host                      string
		Port                      int
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          int
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	GeminiConfig struct {
		APIKey        string
		Model         string
		FallbackModel string
	}

	YouTubeConfig struct {
		APIKey string
	}

	StorageConfig struct {
		Bucket string
	}

	TutorConfig struct {
		RateLimitMax      int
		RateLimitWindow   time.Duration
		MaxRetries        int
		RetryBaseDelay    time.Duration
		RetryMaxDelay     time.Duration
		GenerationTimeout time.Duration
	}

	Config struct {
		Debug                     bool
		TestMode                  bool
		Env                       string
		Build                     string
		AppName                   string
		SecretKey                 string
		FrontendBaseURL           string
		DefaultFromEmail          string
		PasswordResetTimeoutDelta time.Duration
		SendgridAPIKey            string
		RollbarToken              string
		Server                    ServerConfig
		Database                  DatabaseConfig
		Gemini                    GeminiConfig
		YouTube                   YouTubeConfig
		Storage                   StorageConfig
		Tutor                     TutorConfig
	}
)

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func init() {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Aula")
	v.SetDefault("secretKey", "o0p#7y-d1u&+%$nq^_b$8#dwmyx)a(13*cv&@3+ho2t4g=u5zr")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.jwtExpirationDelta", time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "aula")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("gemini.model", "gemini-1.5-pro")
	v.SetDefault("gemini.fallbackModel", "gemini-1.5-flash")
	v.SetDefault("storage.bucket", "aula-materials")
	v.SetDefault("tutor.rateLimitMax", 5)
	v.SetDefault("tutor.rateLimitWindow", time.Minute)
	v.SetDefault("tutor.maxRetries", 3)
	v.SetDefault("tutor.retryBaseDelay", time.Second)
	v.SetDefault("tutor.retryMaxDelay", 8*time.Second)
	v.SetDefault("tutor.generationTimeout", 30*time.Second)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetDefault("env", env)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	Conf = new(Config)
	if err := v.Unmarshal(Conf); err != nil {
		log.Fatalf("config.viper.Unmarshal: %v", err)
	}
}
