package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/custodian/pkg/cryptox"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Store drivers selectable with CUSTODY_STORE_DRIVER.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

var ErrInvalidConfig = errors.New("app: invalid config")

type Config struct {
	Env                 string        `env:"ENV,default=dev"`
	LogLevel            string        `env:"LOG_LEVEL,default=info"`
	LogFormat           string        `env:"LOG_FORMAT,default=json"`
	Port                int           `env:"PORT,default=8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD,default=10s"`

	StoreDriver string `env:"CUSTODY_STORE_DRIVER,default=file"`
	StorePath   string `env:"CUSTODY_STORE_PATH,default=data/users.json"`

	KDFMemoryKiB   uint32 `env:"CUSTODY_KDF_MEMORY_KIB,default=19456"`
	KDFIterations  uint32 `env:"CUSTODY_KDF_ITERATIONS,default=2"`
	KDFParallelism uint8  `env:"CUSTODY_KDF_PARALLELISM,default=1"`

	// GatewaySecret enables bearer authentication on the API. It may only be
	// empty when ENV is dev or test.
	GatewaySecret string `env:"CUSTODY_GATEWAY_SECRET"`
	GatewayIssuer string `env:"CUSTODY_GATEWAY_ISSUER,default=custodian"`

	// TrustProxyHeaders makes rate limits key on X-Forwarded-For. Only enable
	// it behind a reverse proxy that sets the header itself.
	TrustProxyHeaders bool `env:"CUSTODY_TRUST_PROXY_HEADERS,default=false"`

	AuditInterval time.Duration `env:"CUSTODY_AUDIT_INTERVAL,default=1h"`
}

// AllowsAnonymous reports whether the API may run without gateway auth.
func (c Config) AllowsAnonymous() bool {
	return c.Env == "dev" || c.Env == "test"
}

// LoadConfig reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func LoadConfig(ctx context.Context) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing env vars: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverFile, DriverSQLite, DriverBolt:
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if c.StorePath == "" {
		return fmt.Errorf("%w: CUSTODY_STORE_PATH is empty", ErrInvalidConfig)
	}
	if err := c.KDFParams().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.GatewaySecret == "" && !c.AllowsAnonymous() {
		return fmt.Errorf("%w: CUSTODY_GATEWAY_SECRET is required when ENV=%q", ErrInvalidConfig, c.Env)
	}
	return nil
}

func (c Config) KDFParams() cryptox.Params {
	return cryptox.Params{
		Memory:      c.KDFMemoryKiB,
		Iterations:  c.KDFIterations,
		Parallelism: c.KDFParallelism,
	}
}
