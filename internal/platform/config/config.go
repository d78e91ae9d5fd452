// Package config reads the service configuration from the environment.
// Every field has a development default so `go run ./cmd/server` works
// with no environment at all (in-memory stores, simulated ledger).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures the full process configuration.
type Server struct {
	Addr            string
	Environment     string
	LogLevel        string
	AdminToken      string
	JWTSigningKey   string
	TokenTTL        time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	// SeedDemoData registers demo accounts and approval requests at startup.
	SeedDemoData bool

	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Ledger    LedgerConfig
	Vetting   VettingConfig
	Reconcile ReconcileConfig
	Cleanup   CleanupConfig
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers    string
	AuditTopic string
}

// LedgerConfig selects the ledger adapter. An empty RPCURL selects the
// in-process simulated ledger.
type LedgerConfig struct {
	RPCURL          string
	ContractAddress string
	ChainID         int64
	OperatorKey     string
	OperatorAddress string
	OwnerAddress    string
	Timeout         time.Duration
	RPS             float64
}

// Simulated reports whether no RPC endpoint is configured.
func (l LedgerConfig) Simulated() bool { return l.RPCURL == "" }

// CanSign reports whether an operator address can be resolved for ledger
// writes: an operator key for a real ledger, an operator or owner address
// for the simulated one.
func (l LedgerConfig) CanSign() bool {
	if l.Simulated() {
		return l.OperatorAddress != "" || l.OwnerAddress != ""
	}
	return l.OperatorKey != ""
}

type VettingConfig struct {
	// RequireLedgerAuth makes vetting approval all-or-nothing with the
	// ledger authorization. Default false keeps partial approval.
	RequireLedgerAuth bool
}

type ReconcileConfig struct {
	// Interval of the background sweep; zero disables it.
	Interval time.Duration
	// Caller is the address the sweep checks privilege for. Defaults to the
	// ledger operator.
	Caller string
}

type CleanupConfig struct {
	Buffer int
}

const (
	defaultAddr          = ":8080"
	defaultJWTSigningKey = "dev-secret-key-change-in-production"
	defaultAdminToken    = "dev-admin-token"
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Server, error) {
	env := envReader{lookup: lookup}

	cfg := Server{
		Addr:            env.str("DHRUVA_ADDR", defaultAddr),
		Environment:     env.str("ENVIRONMENT", "development"),
		LogLevel:        env.str("LOG_LEVEL", "info"),
		AdminToken:      env.str("ADMIN_API_TOKEN", defaultAdminToken),
		JWTSigningKey:   env.str("JWT_SIGNING_KEY", defaultJWTSigningKey),
		TokenTTL:        env.duration("TOKEN_TTL", 15*time.Minute),
		RequestTimeout:  env.duration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: env.duration("SHUTDOWN_TIMEOUT", 15*time.Second),
		SeedDemoData:    env.boolean("SEED_DEMO_DATA", false),
		Database: DatabaseConfig{
			URL:             env.str("DATABASE_URL", ""),
			MaxOpenConns:    env.integer("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    env.integer("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: env.duration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          env.str("REDIS_URL", ""),
			PoolSize:     env.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: env.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  env.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  env.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: env.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    env.str("KAFKA_BROKERS", ""),
			AuditTopic: env.str("AUDIT_TOPIC", "dhruva.audit"),
		},
		Ledger: LedgerConfig{
			RPCURL:          env.str("LEDGER_RPC_URL", ""),
			ContractAddress: env.str("LEDGER_CONTRACT_ADDRESS", ""),
			ChainID:         int64(env.integer("LEDGER_CHAIN_ID", 31337)),
			OperatorKey:     env.str("LEDGER_OPERATOR_KEY", ""),
			OperatorAddress: strings.ToLower(env.str("LEDGER_OPERATOR_ADDRESS", "")),
			OwnerAddress:    strings.ToLower(env.str("LEDGER_OWNER_ADDRESS", "")),
			Timeout:         env.duration("LEDGER_TIMEOUT", 20*time.Second),
			RPS:             env.float("LEDGER_RPS", 10),
		},
		Vetting: VettingConfig{
			RequireLedgerAuth: env.boolean("VETTING_REQUIRE_LEDGER_AUTH", false),
		},
		Reconcile: ReconcileConfig{
			Interval: env.duration("RECONCILE_INTERVAL", 0),
			Caller:   strings.ToLower(env.str("RECONCILE_CALLER", "")),
		},
		Cleanup: CleanupConfig{
			Buffer: env.integer("CLEANUP_BUFFER", 256),
		},
	}
	if cfg.Reconcile.Caller == "" {
		cfg.Reconcile.Caller = cfg.Ledger.OperatorAddress
	}

	if len(env.errs) > 0 {
		return Server{}, errors.Join(env.errs...)
	}
	return cfg, cfg.Validate()
}

// Validate rejects combinations that would fail at first use.
func (c Server) Validate() error {
	var errs []error
	if c.IsProduction() {
		if c.JWTSigningKey == defaultJWTSigningKey {
			errs = append(errs, errors.New("JWT_SIGNING_KEY must be set in production"))
		}
		if c.AdminToken == defaultAdminToken {
			errs = append(errs, errors.New("ADMIN_API_TOKEN must be set in production"))
		}
	}
	if !c.Ledger.Simulated() && c.Ledger.ContractAddress == "" {
		errs = append(errs, errors.New("LEDGER_CONTRACT_ADDRESS is required with LEDGER_RPC_URL"))
	}
	if c.Vetting.RequireLedgerAuth && !c.Ledger.CanSign() {
		errs = append(errs, errors.New("VETTING_REQUIRE_LEDGER_AUTH needs a ledger operator (LEDGER_OPERATOR_KEY, or LEDGER_OPERATOR_ADDRESS/LEDGER_OWNER_ADDRESS when simulated)"))
	}
	if c.Ledger.RPS < 0 {
		errs = append(errs, errors.New("LEDGER_RPS must not be negative"))
	}
	if c.Cleanup.Buffer <= 0 {
		errs = append(errs, errors.New("CLEANUP_BUFFER must be positive"))
	}
	return errors.Join(errs...)
}

func (c Server) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// envReader collects parse errors instead of failing on the first one.
type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) str(key, def string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *envReader) integer(key string, def int) int {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (e *envReader) float(key string, def float64) float64 {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (e *envReader) boolean(key string, def bool) bool {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}
