package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server     Server     `yaml:"server"`
	Logger     Logger     `yaml:"logger"`
	Storage    Storage    `yaml:"storage"`
	PostgresDB PostgresDB `yaml:"db"`
	SQLite     SQLite     `yaml:"sqlite"`
	Auth       Auth       `yaml:"auth"`
	RedisCache RedisCache `yaml:"rdb"`
	Images     Images     `yaml:"images"`
	Banners    Banners    `yaml:"banners"`
}

type Server struct {
	Addr         string        `env-default:"localhost:8080" yaml:"addr"`
	ReadTimeout  time.Duration `env-default:"5s"             yaml:"readTimeout"`
	IdleTimeout  time.Duration `env-default:"30s"            yaml:"idleTimeout"`
	WriteTimeout time.Duration `env-default:"5s"             yaml:"writeTimeout"`
}

type Logger struct {
	Level     string   `env-default:"info" yaml:"level"`
	Output    []string `yaml:"output"`
	ErrOutput []string `yaml:"errOutput"`
}

type Storage struct {
	Driver string `env:"STORAGE_DRIVER" env-default:"postgres" yaml:"driver"`
}

type PostgresDB struct {
	Addr     string `yaml:"addr"`
	Username string `env:"POSTGRES_USER"     yaml:"username"`
	Password string `env:"POSTGRES_PASSWORD" yaml:"password"`
	DB       string `env:"POSTGRES_DB"       yaml:"db"`
	SSLmode  string `env-default:"disable"   yaml:"sslmode"`
	MaxConns string `env-default:"10"        yaml:"maxConns"`
	Reload   bool   `yaml:"reload"`
	Version  int    `yaml:"version"`
}

type SQLite struct {
	Path    string `env-default:"data/banners.db" yaml:"path"`
	Version int    `yaml:"version"`
}

type Auth struct {
	TTL    time.Duration `env-default:"24h" yaml:"ttl"`
	Secret string        `env:"SECRET"      env-required:"true" yaml:"secret"`
}

// RedisCache is optional: an empty Addr disables the group cache.
type RedisCache struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	ExpTime  time.Duration `env-default:"5m" yaml:"exp"`
}

type Images struct {
	Root    string `env-default:"assets"  yaml:"root"`
	BaseURL string `env-default:"/assets" yaml:"baseURL"`
}

// Banners is the process-wide banner behaviour block. It is read once at
// startup and never mutated afterwards.
type Banners struct {
	// RestrictToGroup is a group name or numeric group id.
	RestrictToGroup   string `yaml:"restrictToGroup"`
	TabName           string `yaml:"tabName"`
	InheritFromParent *bool  `yaml:"inheritFromParent"`
	CarouselWidget    string `env-default:"slides" yaml:"carouselWidget"`
	Transform         string `env-default:"crop"   yaml:"transform"`
	MaxDepth          int    `env-default:"64"     yaml:"maxDepth"`
}

// Inherit reports whether resolution climbs to the parent node. Unset means on.
func (b Banners) Inherit() bool {
	return b.InheritFromParent == nil || *b.InheritFromParent
}

func New(configPath string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config error: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("validate config error: %w", err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.PostgresDB.Username == "" || c.PostgresDB.DB == "" {
			return fmt.Errorf("postgres username and db are required") //nolint:perfsprint
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required") //nolint:perfsprint
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Banners.MaxDepth <= 0 {
		return fmt.Errorf("banners maxDepth must be positive, got %d", c.Banners.MaxDepth)
	}

	return nil
}
