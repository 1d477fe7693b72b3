package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

var ErrConfigPathIsEmpty = errors.New("config path is empty")

type Config struct {
	App        `yaml:"app"`
	Logger     `yaml:"log"`
	Database   `yaml:"database"`
	Redis      `yaml:"redis"`
	HTTPServer `yaml:"http_server"`
	Key        `yaml:"key"`
	Relay      `yaml:"relay"`
	Watcher    `yaml:"watcher"`
}

type App struct {
	ServiceName string `yaml:"service_name"`
	Version     string `yaml:"version"`
}

type Logger struct {
	Level      string   `yaml:"level"`
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
	Host      string    `yaml:"host"`
	Port      uint16    `yaml:"port"`
	User      string    `yaml:"user"`
	Password  string    `yaml:"password"`
	Name      string    `yaml:"name"`
	SSLMode   string    `yaml:"ssl_mode"`
	MaxConns  int32     `yaml:"max_conns"`
	MinConns  int32     `yaml:"min_conns"`
	Migration Migration `yaml:"migration"`
}

type Migration struct {
	Path      string `yaml:"path"`
	AutoApply bool   `yaml:"auto_apply"`
}

type Redis struct {
	Host     string `yaml:"host"`
	Port     uint16 `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type HTTPServer struct {
	Host     string  `yaml:"host"`
	Port     uint16  `yaml:"port"`
	BasePath string  `yaml:"base_path"`
	Timeout  Timeout `yaml:"timeout"`
	CORS     CORS    `yaml:"cors"`
	JWT      JWT     `yaml:"jwt"`
}

type Timeout struct {
	Request time.Duration `yaml:"request"`
	Read    time.Duration `yaml:"read"`
	Write   time.Duration `yaml:"write"`
	Idle    time.Duration `yaml:"idle"`
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
}

type JWT struct {
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

type Key struct {
	PublicKey  string `yaml:"public"`
	PrivateKey string `yaml:"private"`
}

// Relay is the broker connection surface. Host, credentials and vhost are
// required; a failed validation aborts startup.
type Relay struct {
	Host           string        `yaml:"host"`
	Port           uint16        `yaml:"port"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	VirtualHost    string        `yaml:"virtual_host"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RetryCount     int           `yaml:"retry_count"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
}

// Watcher bounds the adaptive polling loop.
type Watcher struct {
	MinInterval   time.Duration `yaml:"min_interval"`
	MaxInterval   time.Duration `yaml:"max_interval"`
	Step          time.Duration `yaml:"step"`
	IdleThreshold int           `yaml:"idle_threshold"`
	BatchSize     int           `yaml:"batch_size"`
	WarmUpDelay   time.Duration `yaml:"warm_up_delay"`

	// Watermark floor used on process start. Every restart replays the
	// rows past this floor, so keep it close to the live window.
	StartFromID   int64     `yaml:"start_from_id"`
	StartFromDate time.Time `yaml:"start_from_date"`
}

func (r *Relay) Validate() error {
	if r.Host == "" {
		return errors.New("relay host is required")
	}

	if r.Port == 0 {
		return errors.New("relay port is required")
	}

	if r.Username == "" || r.Password == "" {
		return errors.New("relay credentials are required")
	}

	if r.VirtualHost == "" {
		return errors.New("relay virtual host is required")
	}

	if r.RetryCount <= 0 {
		return errors.New("relay retry count must be positive")
	}

	return nil
}

func (w *Watcher) Validate() error {
	if w.MinInterval <= 0 || w.MaxInterval <= 0 {
		return errors.New("watcher poll intervals must be positive")
	}

	if w.MinInterval > w.MaxInterval {
		return errors.New("watcher min interval exceeds max interval")
	}

	if w.Step <= 0 {
		return errors.New("watcher backoff step must be positive")
	}

	if w.IdleThreshold <= 0 {
		return errors.New("watcher idle threshold must be positive")
	}

	if w.BatchSize <= 0 {
		return errors.New("watcher batch size must be positive")
	}

	return nil
}

func MustLoadConfig() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	return cfg
}

func LoadConfig() (*Config, error) {
	path := fetchConfigPath()
	if path == "" {
		return nil, ErrConfigPathIsEmpty
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var config Config

	if err := cleanenv.ReadConfig(path, &config); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := config.Relay.Validate(); err != nil {
		return nil, fmt.Errorf("invalid relay config: %w", err)
	}

	if err := config.Watcher.Validate(); err != nil {
		return nil, fmt.Errorf("invalid watcher config: %w", err)
	}

	return &config, nil
}

func MustPrintConfig(cfg *Config) {
	if err := PrintConfig(cfg); err != nil {
		panic(err)
	}
}

func PrintConfig(cfg *Config) error {
	printable := *cfg
	printable.Database.Password = "***"
	printable.Redis.Password = "***"
	printable.Relay.Password = "***"

	data, err := yaml.Marshal(printable)
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
