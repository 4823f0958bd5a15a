package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"rideshare/pkg/client"
	"rideshare/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	HTTPPort string

	SocketPort        string
	SocketBufferSize  int
	SocketReadTimeout time.Duration
	BlobFraming       string
	MaxBlobSize       int

	AccountServiceURL string

	KafkaBrokers []string
	KafkaTopic   string

	MatchThreshold float64

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		HTTPPort: getEnvStr(EnvHTTPPort, DefaultHTTPPort),

		SocketPort:        getEnvStr(EnvSocketPort, DefaultSocketPort),
		SocketBufferSize:  getEnvNum(EnvSocketBufferSize, DefaultSocketBufferSize),
		SocketReadTimeout: getEnvDuration(EnvSocketReadTimeout, DefaultSocketReadTimeout),
		BlobFraming:       getEnvStr(EnvBlobFraming, DefaultBlobFraming),
		MaxBlobSize:       getEnvNum(EnvMaxBlobSize, DefaultMaxBlobSize),

		AccountServiceURL: getEnvStr(EnvAccountServiceURL, DefaultAccountServiceURL),

		KafkaBrokers: getEnvList(EnvKafkaBrokers, nil),
		KafkaTopic:   getEnvStr(EnvKafkaTopic, DefaultKafkaTopic),

		MatchThreshold: getEnvFloat(EnvMatchThreshold, DefaultMatchThreshold),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, logger.INFO),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.HTTPPort); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("HTTPPort must be between 1 and 65535, got: %s", cfg.HTTPPort))
	}
	if port, err := strconv.Atoi(cfg.SocketPort); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("SocketPort must be between 1 and 65535, got: %s", cfg.SocketPort))
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.SocketBufferSize <= 0 {
		errs = append(errs, fmt.Sprintf("SocketBufferSize must be positive, got: %d", cfg.SocketBufferSize))
	}
	if cfg.SocketReadTimeout < 0 {
		errs = append(errs, fmt.Sprintf("SocketReadTimeout cannot be negative, got: %s", cfg.SocketReadTimeout))
	}
	if cfg.BlobFraming != FramingSentinel && cfg.BlobFraming != FramingLength {
		errs = append(errs, fmt.Sprintf("BlobFraming must be %q or %q, got: %s", FramingSentinel, FramingLength, cfg.BlobFraming))
	}
	if cfg.MaxBlobSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxBlobSize must be positive, got: %d", cfg.MaxBlobSize))
	}

	if cfg.AccountServiceURL == "" {
		errs = append(errs, "AccountServiceURL cannot be empty")
	}

	if cfg.MatchThreshold <= 0 || cfg.MatchThreshold >= 2 {
		errs = append(errs, fmt.Sprintf("MatchThreshold must be in (0, 2), got: %g", cfg.MatchThreshold))
	}

	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.ReadTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errs) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, e := range errs {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"http_port", cfg.HTTPPort,
		"socket_port", cfg.SocketPort,
		"socket_buffer_size", cfg.SocketBufferSize,
		"socket_read_timeout", cfg.SocketReadTimeout,
		"blob_framing", cfg.BlobFraming,
		"max_blob_size", cfg.MaxBlobSize,
		"account_service_url", cfg.AccountServiceURL,
		"kafka_brokers", cfg.KafkaBrokers,
		"kafka_topic", cfg.KafkaTopic,
		"match_threshold", cfg.MatchThreshold,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
