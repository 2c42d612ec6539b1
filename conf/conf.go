package conf

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/kr/pretty"
	"gopkg.in/validator.v2"
	"gopkg.in/yaml.v2"
)

var (
	conf *Config
	once sync.Once
)

type Config struct {
	Env      string
	Hertz    Hertz    `yaml:"hertz"`
	Redis    Redis    `yaml:"redis"`
	Postgres Postgres `yaml:"postgres"`
	Kafka    Kafka    `yaml:"kafka"`
	Market   Market   `yaml:"market"`
	Audit    Audit    `yaml:"audit"`
	Registry Registry `yaml:"registry"`
	Demo     Demo     `yaml:"demo"`
}

type Redis struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	Username string `yaml:"username"`
	DB       int    `yaml:"db"`
}

type Postgres struct {
	DSN string `yaml:"dsn" validate:"nonzero"`
}

type Kafka struct {
	Brokers []string          `yaml:"brokers"`
	Topics  map[string]string `yaml:"topics"`
}

// Market 行情源配置，超时为秒
type Market struct {
	CoinGeckoURL   string `yaml:"coingecko_url" validate:"nonzero"`
	DolarAPIURL    string `yaml:"dolarapi_url" validate:"nonzero"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PriceTTL       int    `yaml:"price_ttl_seconds"`
	QuoteTTL       int    `yaml:"quote_ttl_seconds"`
}

type Audit struct {
	FileName   string `yaml:"file_name"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

type Registry struct {
	RegistryAddress []string `yaml:"registry_address"`
	ServiceID       string   `yaml:"service_id"`
	Username        string   `yaml:"username"`
	Password        string   `yaml:"password"`
}

type Demo struct {
	ExternalID string `yaml:"external_id"`
}

type Hertz struct {
	Service         string `yaml:"service" validate:"nonzero"`
	Address         string `yaml:"address" validate:"nonzero"`
	EnablePprof     bool   `yaml:"enable_pprof"`
	EnableGzip      bool   `yaml:"enable_gzip"`
	EnableAccessLog bool   `yaml:"enable_access_log"`
	EnableCORS      bool   `yaml:"enable_cors"`
	LogLevel        string `yaml:"log_level"`
	LogFileName     string `yaml:"log_file_name"`
	LogMaxSize      int    `yaml:"log_max_size"`
	LogMaxBackups   int    `yaml:"log_max_backups"`
	LogMaxAge       int    `yaml:"log_max_age"`
	NotifyPoolSize  int    `yaml:"notify_pool_size"`
}

// GetConf gets configuration instance
func GetConf() *Config {
	once.Do(initConf)
	return conf
}

func initConf() {
	prefix := "conf"
	confFileRelPath := filepath.Join(prefix, filepath.Join(GetEnv(), "conf.yaml"))
	content, err := os.ReadFile(confFileRelPath)
	if err != nil {
		panic(err)
	}

	conf, err = Parse(content)
	if err != nil {
		hlog.Errorf("load config error - %v", err)
		panic(err)
	}
	conf.Env = GetEnv()

	pretty.Printf("%+v\n", conf)
}

// Parse decodes and validates a yaml document, filling defaults for unset knobs.
func Parse(content []byte) (*Config, error) {
	c := new(Config)
	if err := yaml.Unmarshal(content, c); err != nil {
		return nil, err
	}
	if err := validator.Validate(c); err != nil {
		return nil, err
	}
	if c.Market.TimeoutSeconds <= 0 {
		c.Market.TimeoutSeconds = 10
	}
	if c.Market.PriceTTL <= 0 {
		c.Market.PriceTTL = 60
	}
	if c.Market.QuoteTTL <= 0 {
		c.Market.QuoteTTL = 300
	}
	if c.Hertz.NotifyPoolSize <= 0 {
		c.Hertz.NotifyPoolSize = 256
	}
	if c.Demo.ExternalID == "" {
		c.Demo.ExternalID = "demo_user_clerk_id"
	}
	return c, nil
}

func (m Market) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

func GetEnv() string {
	e := os.Getenv("GO_ENV")
	if len(e) == 0 {
		return "test"
	}
	return e
}

var logLevels = map[string]hlog.Level{
	"trace":  hlog.LevelTrace,
	"debug":  hlog.LevelDebug,
	"info":   hlog.LevelInfo,
	"notice": hlog.LevelNotice,
	"warn":   hlog.LevelWarn,
	"error":  hlog.LevelError,
	"fatal":  hlog.LevelFatal,
}

// LogLevel 未配置或无法识别时为 info
func LogLevel() hlog.Level {
	if l, ok := logLevels[GetConf().Hertz.LogLevel]; ok {
		return l
	}
	return hlog.LevelInfo
}
