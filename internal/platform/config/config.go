package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the engine reads from the environment. FromEnv
// builds it once so main stays lean and services receive plain values.
type Config struct {
	Addr          string
	JWTSigningKey string

	// PseudonymKey keys the blake2b hash that derives student refs. Must be
	// stable across restarts or refs stop matching stored state.
	PseudonymKey string

	RedisURL    string
	PostgresDSN string

	// CatalogPath points at a JSON course catalog loaded at startup. Empty
	// means start with an empty catalog.
	CatalogPath string

	// KafkaBrokers enables the audit Kafka sink when non-empty.
	KafkaBrokers string
	KafkaTopic   string

	Engine  Engine
	Privacy Privacy
}

// Engine holds the thresholds the ledger and validator enforce.
type Engine struct {
	// ClockSkew bounds how far in the future an event timestamp may sit.
	ClockSkew time.Duration
	// RetentionHorizon bounds how old an event may be on arrival.
	RetentionHorizon time.Duration
	// MinSectionTime is the time-on-task floor for section completion.
	MinSectionTime time.Duration
	// MinInteractions is the interaction floor for section completion.
	// Beginner-difficulty objectives use MinInteractionsBeginner instead.
	MinInteractions         int
	MinInteractionsBeginner int
	// ReinforceAttempts is the attempt count above which low comprehension
	// triggers remediation.
	ReinforceAttempts int
	// RateLimit caps requests per student per RateWindow. Zero disables
	// rate limiting.
	RateLimit  int
	RateWindow time.Duration
}

// Privacy holds the anonymization and consent knobs.
type Privacy struct {
	// KThreshold is the k-anonymity floor for published aggregates.
	KThreshold int
	// NoiseScale is the Laplace scale applied to published aggregates.
	// Zero disables differential-privacy noise.
	NoiseScale float64
	// NoiseEpoch is how long one noise draw stays fixed. Aggregates are
	// released one-shot per epoch.
	NoiseEpoch time.Duration
	// ConsentGracePeriod extends expired consent before failing closed.
	// Zero means strict expiry.
	ConsentGracePeriod time.Duration
}

// FromEnv builds a Config from environment variables with development-safe
// defaults.
func FromEnv() Config {
	return Config{
		Addr:          envString("PATHWAY_ADDR", ":8080"),
		JWTSigningKey: envString("PATHWAY_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PseudonymKey:  envString("PATHWAY_PSEUDONYM_KEY", "dev-pseudonym-key"),
		RedisURL:      os.Getenv("PATHWAY_REDIS_URL"),
		PostgresDSN:   os.Getenv("PATHWAY_POSTGRES_DSN"),
		CatalogPath:   os.Getenv("PATHWAY_CATALOG_PATH"),
		KafkaBrokers:  os.Getenv("PATHWAY_KAFKA_BROKERS"),
		KafkaTopic:    envString("PATHWAY_KAFKA_TOPIC", "pathway.audit"),
		Engine: Engine{
			ClockSkew:               envDuration("PATHWAY_CLOCK_SKEW", 5*time.Minute),
			RetentionHorizon:        envDuration("PATHWAY_RETENTION_HORIZON", 30*24*time.Hour),
			MinSectionTime:          envDuration("PATHWAY_MIN_SECTION_TIME", 2*time.Minute),
			MinInteractions:         envInt("PATHWAY_MIN_INTERACTIONS", 2),
			MinInteractionsBeginner: envInt("PATHWAY_MIN_INTERACTIONS_BEGINNER", 3),
			ReinforceAttempts:       envInt("PATHWAY_REINFORCE_ATTEMPTS", 2),
			RateLimit:               envInt("PATHWAY_RATE_LIMIT", 0),
			RateWindow:              envDuration("PATHWAY_RATE_WINDOW", time.Minute),
		},
		Privacy: Privacy{
			KThreshold:         envInt("PATHWAY_K_THRESHOLD", 5),
			NoiseScale:         envFloat("PATHWAY_NOISE_SCALE", 0),
			NoiseEpoch:         envDuration("PATHWAY_NOISE_EPOCH", time.Hour),
			ConsentGracePeriod: envDuration("PATHWAY_CONSENT_GRACE", 0),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
