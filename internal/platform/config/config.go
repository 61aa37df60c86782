package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures node level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	LogLevel      string

	Root  ChainConfig
	Child ChainConfig

	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Relay     RelayConfig
	RateLimit RateLimitConfig
}

// ChainConfig identifies one ledger the node runs.
type ChainConfig struct {
	ID   uint64
	Name string
	// Admin receives the default admin role of the registry deployed at boot.
	Admin  string
	Token  string
	Symbol string
}

// PostgresConfig enables the event store and the relay archive. An empty URL
// keeps both in memory.
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig enables durable relay checkpoints. An empty URL keeps them in
// memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig routes relayed messages through a topic per direction. No
// brokers means messages are delivered straight to the destination bridge.
type KafkaConfig struct {
	Brokers       []string
	ClientID      string
	DepositTopic  string
	WithdrawTopic string
}

type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxBackoff   time.Duration
}

// RateLimitConfig bounds authenticated requests per caller. Requests <= 0
// disables the limiter.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          envString("TOKENREGISTRY_ADDR", ":8080"),
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     envString("JWT_ISSUER", "tokenregistry"),
		LogLevel:      envString("LOG_LEVEL", "info"),
		Root: ChainConfig{
			ID:     envUint("ROOT_CHAIN_ID", 1),
			Name:   envString("ROOT_CHAIN_NAME", "root"),
			Admin:  os.Getenv("ROOT_ADMIN"),
			Token:  envString("ROOT_TOKEN_NAME", "Trade Documents"),
			Symbol: envString("ROOT_TOKEN_SYMBOL", "DOC"),
		},
		Child: ChainConfig{
			ID:     envUint("CHILD_CHAIN_ID", 137),
			Name:   envString("CHILD_CHAIN_NAME", "child"),
			Admin:  os.Getenv("CHILD_ADMIN"),
			Token:  envString("CHILD_TOKEN_NAME", "Trade Documents"),
			Symbol: envString("CHILD_TOKEN_SYMBOL", "DOC"),
		},
		Postgres: PostgresConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       envList("KAFKA_BROKERS"),
			ClientID:      envString("KAFKA_CLIENT_ID", "tokenregistry"),
			DepositTopic:  envString("KAFKA_DEPOSIT_TOPIC", "tokenregistry.deposits"),
			WithdrawTopic: envString("KAFKA_WITHDRAW_TOPIC", "tokenregistry.withdrawals"),
		},
		Relay: RelayConfig{
			PollInterval: envDuration("RELAY_POLL_INTERVAL", time.Second),
			BatchSize:    envInt("RELAY_BATCH_SIZE", 100),
			MaxBackoff:   envDuration("RELAY_MAX_BACKOFF", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			Requests: envInt("RATE_LIMIT_REQUESTS", 120),
			Window:   envDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

func envUint(key string, def uint64) uint64 {
	n, err := strconv.ParseUint(os.Getenv(key), 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return d
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
