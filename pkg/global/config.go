package global

import (
	"strings"
	"time"
)

// Config is the process configuration, read from the environment after godotenv
// has loaded any .env file.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	MongoURI      string
	MongoDatabase string

	RedisAddress  string
	RedisPassword string

	PublicBaseURL        string
	CheckoutCurrency     string
	CheckoutWatchTimeout time.Duration

	JWTSecret string

	MidtransServerKey    string
	MidtransIsProduction bool

	CORSOrigins []string
}

func LoadConfig() Config {
	return Config{
		Env:      GetEnvOrDefault("ENV", "development"),
		Port:     GetEnvOrDefault("PORT", "8000"),
		LogLevel: GetEnvOrDefault("LOG_LEVEL", "info"),

		// An empty URI leaves the document store unconfigured; checkout then
		// reports the store as unavailable instead of the process refusing to start.
		MongoURI:      GetEnvOrDefault("MONGODB_URI", ""),
		MongoDatabase: GetEnvOrDefault("MONGODB_DATABASE", "storefront"),

		RedisAddress:  GetEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: GetEnvOrDefault("REDIS_PASSWORD", ""),

		PublicBaseURL:        NormalizeBaseURL(GetEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:3000")),
		CheckoutCurrency:     strings.ToLower(GetEnvOrDefault("CHECKOUT_CURRENCY", "mxn")),
		CheckoutWatchTimeout: GetEnvDurationOrDefault("CHECKOUT_WATCH_TIMEOUT", 15*time.Minute),

		JWTSecret: GetEnvOrDefault("JWT_SECRET", ""),

		MidtransServerKey:    GetEnvOrDefault("MIDTRANS_SERVER_KEY", ""),
		MidtransIsProduction: GetEnvBool("MIDTRANS_IS_PRODUCTION"),

		CORSOrigins: splitList(GetEnvOrDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
