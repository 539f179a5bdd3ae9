// Package config loads the env-style settings shared by the API gateway,
// the ledger worker and ledgerctl.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config is validated as a whole before any binary opens a connection.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Payment     PaymentConfig
	RateLimit   RateLimitConfig
	Reconcile   ReconcileConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	InvestmentTopic   string // Topic receiving investment.recorded events
	ReconcileTopic    string // Topic carrying reconcile requests
	NumPartitions     int    // Number of partitions for topics
	ReplicationFactor int    // Replication factor for topics
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // Topic for Dead Letter Queue
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int // Maximum number of retry attempts for outbox messages
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// PaymentConfig contains external payment processor settings
type PaymentConfig struct {
	Provider            string // "stripe" or "paypal"
	StripeSecretKey     string
	StripeWebhookSecret string
	PayPalClientID      string
	PayPalClientSecret  string
	PayPalWebhookID     string
	PayPalSandbox       bool
	SuccessURL          string // Redirect target after checkout, receives the session handle
	CancelURL           string
	RequestTimeout      time.Duration
}

// RateLimitConfig contains per-client rate limiting for payment endpoints
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// ReconcileConfig contains settings for the reconcile-request consumer
type ReconcileConfig struct {
	ConsumerGroup string
	Concurrency   int // Startups reconciled in parallel by a full run
}

// problems collects every invalid setting so startup reports them together
type problems []string

func (p *problems) check(ok bool, msg string) {
	if !ok {
		*p = append(*p, msg)
	}
}

func (p *problems) positive(d time.Duration, key string) {
	p.check(d > 0, key+" must be greater than 0")
}

func (c *Config) validate() error {
	var p problems

	c.Server.validate(&p)
	c.Kafka.validate(&p)
	c.Postgres.validate(&p)
	c.MongoDB.validate(&p)
	c.Payment.validate(&p)

	p.positive(c.Outbox.PollingInterval, "OUTBOX_POLLING_INTERVAL")
	p.check(c.Outbox.BatchSize > 0, "OUTBOX_BATCH_SIZE must be greater than 0")
	p.check(c.Outbox.MaxRetryAttempts > 0, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	p.check(c.WorkerPool.Size > 0, "WORKER_POOL_SIZE must be greater than 0")
	p.check(c.RateLimit.RPS > 0, "RATE_LIMIT_RPS must be greater than 0")
	p.check(c.RateLimit.Burst > 0, "RATE_LIMIT_BURST must be greater than 0")
	p.check(c.Reconcile.ConsumerGroup != "", "RECONCILE_CONSUMER_GROUP is required")
	p.check(c.Reconcile.Concurrency > 0, "RECONCILE_CONCURRENCY must be greater than 0")

	if len(p) > 0 {
		return errors.New(strings.Join(p, ", "))
	}
	return nil
}

func (s ServerConfig) validate(p *problems) {
	p.check(s.Port > 0, "SERVER_PORT must be greater than 0")
	p.positive(s.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")
	p.positive(s.ReadTimeout, "SERVER_READ_TIMEOUT")
	p.positive(s.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	p.positive(s.IdleTimeout, "SERVER_IDLE_TIMEOUT")
}

func (k KafkaConfig) validate(p *problems) {
	p.check(k.Brokers != "", "KAFKA_BROKERS is required")
	p.check(k.InvestmentTopic != "", "KAFKA_INVESTMENT_TOPIC is required")
	p.check(k.ReconcileTopic != "", "KAFKA_RECONCILE_TOPIC is required")
	p.check(k.MinBytes > 0, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	p.check(k.MaxBytes >= k.MinBytes, "KAFKA_CONSUMER_MAX_BYTES must not be below KAFKA_CONSUMER_MIN_BYTES")
	p.positive(k.MaxWait, "KAFKA_CONSUMER_MAX_WAIT")
	p.check(k.DLQTopic != k.ReconcileTopic, "KAFKA_DLQ_TOPIC must differ from KAFKA_RECONCILE_TOPIC")
}

func (pg PostgresConfig) validate(p *problems) {
	p.check(pg.URL != "", "POSTGRES_URL is required")
	p.check(pg.MaxConns > 0, "POSTGRES_MAX_CONNS must be greater than 0")
	p.check(pg.MinConns >= 0 && pg.MinConns <= pg.MaxConns, "POSTGRES_MIN_CONNS must be between 0 and POSTGRES_MAX_CONNS")
	p.positive(pg.ConnMaxLifetime, "POSTGRES_MAX_CONN_LIFETIME")
	p.positive(pg.ConnMaxIdleTime, "POSTGRES_MAX_CONN_IDLE_TIME")
}

func (m MongoDBConfig) validate(p *problems) {
	p.check(m.URI != "", "MONGO_URI is required")
	p.check(m.Database != "", "MONGO_DATABASE is required")
	p.positive(m.Timeout, "MONGO_TIMEOUT")
	p.check(m.MaxPoolSize > 0, "MONGO_MAX_POOL_SIZE must be greater than 0")
	p.check(m.MinPoolSize <= m.MaxPoolSize, "MONGO_MIN_POOL_SIZE must not exceed MONGO_MAX_POOL_SIZE")
	p.positive(m.MaxConnIdleTime, "MONGO_MAX_CONN_IDLE_TIME")
}

func (pc PaymentConfig) validate(p *problems) {
	switch pc.Provider {
	case "stripe":
		p.check(pc.StripeSecretKey != "", "STRIPE_SECRET_KEY is required when PAYMENT_PROVIDER=stripe")
		p.check(pc.StripeWebhookSecret != "", "STRIPE_WEBHOOK_SECRET is required when PAYMENT_PROVIDER=stripe")
	case "paypal":
		p.check(pc.PayPalClientID != "" && pc.PayPalClientSecret != "", "PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET are required when PAYMENT_PROVIDER=paypal")
		p.check(pc.PayPalWebhookID != "", "PAYPAL_WEBHOOK_ID is required when PAYMENT_PROVIDER=paypal")
	default:
		p.check(false, "PAYMENT_PROVIDER must be one of: stripe, paypal")
	}
	p.check(pc.SuccessURL != "", "PAYMENT_SUCCESS_URL is required")
	p.check(pc.CancelURL != "", "PAYMENT_CANCEL_URL is required")
	p.positive(pc.RequestTimeout, "PAYMENT_REQUEST_TIMEOUT")
}
