package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Rabbit   RabbitConfig
	Booking  BookingConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
	Migrate  bool
}

type RabbitConfig struct {
	// URL is the AMQP connection string. Empty disables the notification
	// publisher; committed notifications stay queryable either way.
	URL string
}

type BookingConfig struct {
	OpTimeout  time.Duration
	MaxRetries int
}

type CacheConfig struct {
	EventSummaryTTL time.Duration
	EventListTTL    time.Duration
	AnalyticsTTL    time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverHost := os.Getenv("SERVER_HOST")
	if serverHost == "" {
		serverHost = "localhost"
	}

	serverPort, err := envInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: serverHost,
		Port: serverPort,
	}

	postgresHost := os.Getenv("POSTGRES_HOST")
	if postgresHost == "" {
		postgresHost = "localhost"
	}

	postgresPort, err := envInt("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	postgresSSLMode := os.Getenv("POSTGRES_SSLMODE")
	if postgresSSLMode == "" {
		postgresSSLMode = "disable"
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     postgresHost,
		Port:     postgresPort,
		SSLMode:  postgresSSLMode,
		Migrate:  os.Getenv("POSTGRES_MIGRATE") != "false",
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisCfg := RedisConfig{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	}

	rabbitCfg := RabbitConfig{
		URL: os.Getenv("RABBITMQ_URL"),
	}

	opTimeoutSec, err := envInt("BOOKING_OP_TIMEOUT_SEC", 5)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	maxRetries, err := envInt("BOOKING_MAX_RETRIES", 2)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	bookingCfg := BookingConfig{
		OpTimeout:  time.Duration(opTimeoutSec) * time.Second,
		MaxRetries: maxRetries,
	}

	analyticsTTLSec, err := envInt("ANALYTICS_TTL_SEC", 15)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheCfg := CacheConfig{
		EventSummaryTTL: 60 * time.Second,
		EventListTTL:    30 * time.Second,
		AnalyticsTTL:    time.Duration(analyticsTTLSec) * time.Second,
	}

	return &Config{
		Server:   serverCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Rabbit:   rabbitCfg,
		Booking:  bookingCfg,
		Cache:    cacheCfg,
	}, nil
}

func envInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}

	return v, nil
}
