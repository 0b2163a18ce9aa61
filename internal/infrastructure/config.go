package infrastructure

import (
	"log"
	"os"
	"time"
)

// AppConfig carries every tunable the engine reads from the environment.
// Business timeouts live here, never in the settlement core.
type AppConfig struct {
	Port      string
	JWTSecret string

	RedisAddr   string // empty disables the order view cache
	KafkaBroker string // empty falls back to the log emitter
	KafkaTopic  string

	// DisputeGraceWindow is how long a Delivered order may wait for buyer
	// action before it auto-escalates to Disputed.
	DisputeGraceWindow time.Duration
	// EscalationInterval is how often the overdue scan runs.
	EscalationInterval time.Duration
	// OrderViewTTL bounds staleness of the cached read views.
	OrderViewTTL time.Duration

	CasbinModelPath  string
	CasbinPolicyPath string
}

// LoadConfig reads the configuration from the environment with development
// fallbacks.
func LoadConfig() *AppConfig {
	return &AppConfig{
		Port:               getEnv("PORT", "8080"),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		KafkaBroker:        getEnv("KAFKA_BROKER", ""),
		KafkaTopic:         getEnv("KAFKA_NOTIFICATIONS_TOPIC", "order.notifications"),
		DisputeGraceWindow: getDurationEnv("DISPUTE_GRACE_WINDOW", 72*time.Hour),
		EscalationInterval: getDurationEnv("ESCALATION_INTERVAL", time.Hour),
		OrderViewTTL:       getDurationEnv("ORDER_VIEW_TTL", 5*time.Minute),
		CasbinModelPath:    getEnv("CASBIN_MODEL", "config/rbac_model.conf"),
		CasbinPolicyPath:   getEnv("CASBIN_POLICY", "config/rbac_policy.csv"),
	}
}

// getEnv gets an environment variable with fallback.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDurationEnv parses a duration environment variable with fallback.
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("config: invalid duration for %s (%q), using %s", key, value, fallback)
		return fallback
	}
	return d
}
