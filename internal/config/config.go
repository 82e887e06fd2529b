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
	App        `yaml:"app"`
	Logger     `yaml:"log"`
	Database   `yaml:"database"`
	Redis      `yaml:"redis"`
	HTTPServer `yaml:"http_server"`
	Mailer     `yaml:"mailer"`
	Key        `yaml:"key"`
	Kafka      `yaml:"kafka"`
	Geo        `yaml:"geo"`
	Ingest     `yaml:"ingest"`
	Auth       `yaml:"auth"`
	Dashboard  `yaml:"dashboard"`
}

type App struct {
	ServiceName string `yaml:"service_name" env-default:"sms-collector"`
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

type Database struct {
	Host      string    `yaml:"host" env:"DB_HOST"`
	Port      uint16    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User      string    `yaml:"user" env:"DB_USER"`
	Password  string    `yaml:"password" env:"DB_PASSWORD"`
	Name      string    `yaml:"name" env:"DB_NAME"`
	SSLMode   string    `yaml:"ssl_mode" env-default:"disable"`
	MaxConns  int32     `yaml:"max_conns"`
	MinConns  int32     `yaml:"min_conns"`
	Migration Migration `yaml:"migration"`
}

type Migration struct {
	Path      string `yaml:"path" env-default:"./migrations"`
	AutoApply bool   `yaml:"auto_apply"`
}

type Redis struct {
	Enable   bool   `yaml:"enable"`
	Host     string `yaml:"host" env:"REDIS_HOST"`
	Port     uint16 `yaml:"port" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
}

type HTTPServer struct {
	Host     string  `yaml:"host" env-default:"0.0.0.0"`
	Port     uint16  `yaml:"port" env:"PORT" env-default:"8080"`
	BasePath string  `yaml:"base_path" env-default:"/"`
	Timeout  Timeout `yaml:"timeout"`
	CORS     CORS    `yaml:"cors"`
	JWT      JWT     `yaml:"jwt"`
}

type Timeout struct {
	Request time.Duration `yaml:"request" env-default:"15s"`
	Read    time.Duration `yaml:"read" env-default:"10s"`
	Write   time.Duration `yaml:"write" env-default:"15s"`
	Idle    time.Duration `yaml:"idle" env-default:"60s"`
}

type CORS struct {
	Enabled          bool          `yaml:"enabled"`
	AllowAllOrigins  bool          `yaml:"allow_all_origins"`
	AllowOrigins     []string      `yaml:"allow_origins"`
	AllowMethods     []string      `yaml:"allow_methods"`
	AllowHeaders     []string      `yaml:"allow_headers"`
	ExposeHeaders    []string      `yaml:"expose_headers"`
	AllowCredentials bool          `yaml:"allow_credentials"`
	MaxAge           time.Duration `yaml:"max_age"`
	AllowWebSockets  bool          `yaml:"allow_websockets"`
	AllowFiles       bool          `yaml:"allow_files"`
}

type JWT struct {
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env-default:"24h"`
	SecureCookie   bool          `yaml:"secure_cookie" env-default:"true"`
}

type Mailer struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from"`
	UseTLS   bool   `yaml:"use_tls"`
	NotifyTo string `yaml:"notify_to" env:"SMTP_NOTIFY_TO"`
}

type Key struct {
	PublicKey  string `yaml:"public" env:"JWT_PUBLIC_KEY_PATH"`
	PrivateKey string `yaml:"private" env:"JWT_PRIVATE_KEY_PATH"`
}

type Kafka struct {
	Enabled  bool     `yaml:"enabled"`
	Brokers  []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic    string   `yaml:"topic" env-default:"sms.ingested"`
	Producer Producer `yaml:"producer"`
}

type Producer struct {
	Name         string        `yaml:"name" env-default:"outbox"`
	WorkerCount  int           `yaml:"worker_count" env-default:"2"`
	PollInterval time.Duration `yaml:"poll_interval" env-default:"2s"`
	BatchSize    int           `yaml:"batch_size" env-default:"50"`
}

type Geo struct {
	GeoLiteCountryPath string `yaml:"geo_lite_country_path"`
	GeoLiteASNPath     string `yaml:"geo_lite_asn_path"`
}

type Ingest struct {
	APIKey        string `yaml:"api_key" env:"INGEST_API_KEY"`
	APIKeyHash    string `yaml:"api_key_hash" env:"INGEST_API_KEY_HASH"`
	EncryptionKey string `yaml:"encryption_key" env:"ENCRYPTION_KEY"`
	MaxBodyBytes  int64  `yaml:"max_body_bytes" env-default:"65536"`
	Dedup         Dedup  `yaml:"dedup"`
}

type Dedup struct {
	Enabled bool          `yaml:"enabled"`
	Window  time.Duration `yaml:"window" env-default:"10m"`
}

type Auth struct {
	AllowedEmails string `yaml:"allowed_emails" env:"ALLOWED_EMAILS"`
	Google        Google `yaml:"google"`
}

type Google struct {
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `yaml:"redirect_url" env:"GOOGLE_REDIRECT_URL"`
}

type Dashboard struct {
	PageSize     int           `yaml:"page_size" env-default:"100"`
	MaxPageSize  int           `yaml:"max_page_size" env-default:"500"`
	PollInterval time.Duration `yaml:"poll_interval" env-default:"1s"`
}

func MustLoadConfig() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	return cfg
}

// LoadConfig reads the YAML file given by -config or CONFIG_PATH. Without a file, env only.
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
	if c.Ingest.APIKey == "" && c.Ingest.APIKeyHash == "" {
		return errors.New("ingest.api_key or ingest.api_key_hash is required")
	}

	if c.Ingest.EncryptionKey == "" {
		return errors.New("ingest.encryption_key is required")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required when kafka is enabled")
	}

	if c.Ingest.Dedup.Enabled && !c.Redis.Enable {
		return errors.New("ingest.dedup requires redis.enable")
	}

	return nil
}

func MustPrintConfig(cfg *Config) {
	if err := PrintConfig(cfg); err != nil {
		panic(err)
	}
}

// PrintConfig dumps the effective config with secrets masked.
func PrintConfig(cfg *Config) error {
	safe := *cfg
	safe.Database.Password = mask(safe.Database.Password)
	safe.Redis.Password = mask(safe.Redis.Password)
	safe.Mailer.Password = mask(safe.Mailer.Password)
	safe.Ingest.APIKey = mask(safe.Ingest.APIKey)
	safe.Ingest.APIKeyHash = mask(safe.Ingest.APIKeyHash)
	safe.Ingest.EncryptionKey = mask(safe.Ingest.EncryptionKey)
	safe.Auth.Google.ClientSecret = mask(safe.Auth.Google.ClientSecret)

	data, err := yaml.Marshal(&safe)
	if err != nil {
		return err
	}

	println(string(data))

	return nil
}

func mask(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	return masked
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
