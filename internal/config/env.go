package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL  string
	Port         string
	JWTSecret    string
	TokenTTLMins int
	BcryptCost   int

	AIAPIKey string
	GenModel string

	CaptionAPIURL string
	CaptionAPIKey string

	HordeAPIURL string
	HordeAPIKey string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	OIDCIssuerURL      string

	AllowedOrigins []string
}

// LoadConfig loads the environment variables and returns the config.
// Startup aborts when the database URL or the token signing secret is
// missing; serving with either absent would be worse than not serving.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		Port:         getEnv("PORT", "8080"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		TokenTTLMins: getEnvInt("TOKEN_TTL_MINUTES", 60),
		BcryptCost:   getEnvInt("BCRYPT_COST", 0),

		AIAPIKey: getEnv("GEMINI_API_KEY", ""),
		GenModel: getEnv("GEN_MODEL", "gemini-1.5-flash"),

		CaptionAPIURL: getEnv("CAPTION_API_URL",
			"https://api-inference.huggingface.co/models/Salesforce/blip-image-captioning-base"),
		CaptionAPIKey: getEnv("CAPTION_API_KEY", ""),

		HordeAPIURL: getEnv("HORDE_API_URL", "https://stablehorde.net/api/v2"),
		// "0000000000" is Stable Horde's documented anonymous key.
		HordeAPIKey: getEnv("HORDE_API_KEY", "0000000000"),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "converso-uploads"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		OIDCIssuerURL:      getEnv("OIDC_ISSUER_URL", "https://accounts.google.com"),

		AllowedOrigins: []string{getEnv("FRONTEND_ORIGIN", "http://localhost:3000")},
	}

	if cfg.DatabaseURL == "" {
		logrus.Fatal("DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.Warnf("%s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
