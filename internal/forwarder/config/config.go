package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

const masked = "******"

var ErrConfigPathIsEmpty = errors.New("config path is empty")

type Config struct {
	App       `yaml:"app"`
	Logger    `yaml:"log"`
	Bridge    `yaml:"bridge"`
	Storage   `yaml:"storage"`
	Device    `yaml:"device"`
	Scheduler `yaml:"scheduler"`
	Sources   `yaml:"sources"`
}

type App struct {
	ServiceName string `yaml:"service_name" env-default:"sms-forwarder"`
	Version     string `yaml:"version" env-default:"0.1.0"`
}

type Logger struct {
	Level      string   `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	FormatJSON bool     `yaml:"format_json"`
	Rotation   Rotation `yaml:"rotation"`
}

type Rotation struct {
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// Bridge is the loopback HTTP endpoint the platform shim posts events to.
// Token is shared with the shim and the configuration screen; other local processes lack it.
type Bridge struct {
	Host    string        `yaml:"host" env:"BRIDGE_HOST" env-default:"127.0.0.1"`
	Port    uint16        `yaml:"port" env:"BRIDGE_PORT" env-default:"8787"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
	Token   string        `yaml:"token" env:"BRIDGE_TOKEN"`
}

const minBridgeTokenLen = 16

type Storage struct {
	Path string `yaml:"path" env:"FORWARDER_DB_PATH" env-default:"./data/forwarder.db"`
}

// Device seeds the settings table on first start. Values already stored on the device win.
type Device struct {
	TargetURL string `yaml:"target_url" env:"TARGET_URL"`
	APIKey    string `yaml:"api_key" env:"API_KEY"`
}

type Scheduler struct {
	PollInterval       time.Duration `yaml:"poll_interval" env-default:"2s"`
	WorkerCount        int           `yaml:"worker_count" env-default:"4"`
	BatchSize          int           `yaml:"batch_size" env-default:"32"`
	MinBackoff         time.Duration `yaml:"min_backoff" env-default:"10s"`
	MaxBackoff         time.Duration `yaml:"max_backoff" env-default:"5h"`
	JitterFactor       float64       `yaml:"jitter_factor" env-default:"0.1"`
	RetryWindow        time.Duration `yaml:"retry_window" env-default:"24h"`
	Retention          time.Duration `yaml:"retention" env-default:"168h"`
	RequestTimeout     time.Duration `yaml:"request_timeout" env-default:"30s"`
	ConnectivityTarget string        `yaml:"connectivity_target" env:"CONNECTIVITY_TARGET"`
	ConnectivityDial   time.Duration `yaml:"connectivity_dial" env-default:"3s"`
}

type Sources struct {
	Packages           []string `yaml:"packages" env:"SOURCE_PACKAGES" env-separator:","`
	PlaceholderPhrases []string `yaml:"placeholder_phrases" env:"PLACEHOLDER_PHRASES" env-separator:","`
}

func MustLoadConfig() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	return cfg
}

func LoadConfig() (*Config, error) {
	return Load(fetchConfigPath())
}

func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env: %w", err)
		}
	} else {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}

		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Bridge.Token) < minBridgeTokenLen {
		return fmt.Errorf("bridge.token must be at least %d characters", minBridgeTokenLen)
	}

	if c.Storage.Path == "" {
		return errors.New("storage.path is required")
	}

	if c.Scheduler.WorkerCount <= 0 {
		return errors.New("scheduler.worker_count must be positive")
	}

	if c.Scheduler.MaxBackoff < c.Scheduler.MinBackoff {
		return errors.New("scheduler.max_backoff must not be lower than scheduler.min_backoff")
	}

	return nil
}

func MustPrintConfig(cfg *Config) {
	if err := PrintConfig(cfg); err != nil {
		panic(err)
	}
}

func PrintConfig(cfg *Config) error {
	safe := *cfg
	safe.Bridge.Token = masked
	if strings.TrimSpace(safe.Device.APIKey) != "" {
		safe.Device.APIKey = masked
	}

	data, err := yaml.Marshal(&safe)
	if err != nil {
		return err
	}

	println(string(data))

	return nil
}

func fetchConfigPath() string {
	var result string

	flag.StringVar(&result, "config", "", "Path to config file")
	flag.Parse()

	if result == "" {
		result = os.Getenv("CONFIG_PATH")
	}

	return result
}
