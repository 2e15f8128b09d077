package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config - корневая структура конфигурации сервиса дашборда.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Source    SourceConfig    `mapstructure:"source"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig описывает подключение к PostgreSQL (источник документов и аудита).
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConns       int32         `mapstructure:"max_conns"`
	MinConns       int32         `mapstructure:"min_conns"`
	ConnectRetries uint          `mapstructure:"connect_retries"`
	ConnectDelay   time.Duration `mapstructure:"connect_delay"`
}

// RedisConfig описывает подключение к Redis (зеркало снимка для реплик).
// Пустой Addr выключает зеркалирование.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Scope    string `mapstructure:"scope"` // Суффикс ключа для staging/demo стендов
}

// Режимы работы инстанса дашборда.
const (
	ModePrimary  = "primary"  // Считает снимки из Postgres и зеркалит их в Redis
	ModeFollower = "follower" // Только читает зеркало из Redis
)

// DashboardConfig - параметры цикла обновления и расчета.
type DashboardConfig struct {
	Mode            string        `mapstructure:"mode"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	RefreshTimeout  time.Duration `mapstructure:"refresh_timeout"`
	AuditLimit      int           `mapstructure:"audit_limit"`   // Сколько последних событий аудита брать
	Timezone        string        `mapstructure:"timezone"`      // IANA имя, "Local" - зона процесса
	SnapshotTTL     time.Duration `mapstructure:"snapshot_ttl"`

	// Ручное обновление через API
	ManualRefreshRPS   float64 `mapstructure:"manual_refresh_rps"`
	ManualRefreshBurst int     `mapstructure:"manual_refresh_burst"`
}

// Location разбирает Timezone. Ошибка возвращается только для неизвестной зоны.
func (d DashboardConfig) Location() (*time.Location, error) {
	if d.Timezone == "" || strings.EqualFold(d.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid dashboard.timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}

// SourceConfig - настройки Circuit Breaker вокруг источника данных.
type SourceConfig struct {
	CBMaxRequests uint32        `mapstructure:"cb_max_requests"`
	CBInterval    time.Duration `mapstructure:"cb_interval"`
	CBTimeout     time.Duration `mapstructure:"cb_timeout"`
	CBFailures    uint32        `mapstructure:"cb_failures"` // Сколько ошибок подряд открывают предохранитель
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// 2. ENV перекрывает файл: DASHBOARD_REFRESH_INTERVAL=1m перекроет dashboard.refresh_interval
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("database.url", "DATABASE_URL", "DB_URL")

	// 3. Дефолты
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет - работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет то, без чего сервис не сможет работать.
func (c *Config) Validate() error {
	switch c.Dashboard.Mode {
	case "", ModePrimary:
		if c.Database.URL == "" {
			return errors.New("database.url (DATABASE_URL) is required")
		}
	case ModeFollower:
		if c.Redis.Addr == "" {
			return errors.New("redis.addr is required in follower mode")
		}
	default:
		return fmt.Errorf("unknown dashboard.mode %q", c.Dashboard.Mode)
	}
	if c.Dashboard.RefreshInterval <= 0 {
		return fmt.Errorf("dashboard.refresh_interval must be positive, got %s", c.Dashboard.RefreshInterval)
	}
	if c.Dashboard.AuditLimit <= 0 {
		return fmt.Errorf("dashboard.audit_limit must be positive, got %d", c.Dashboard.AuditLimit)
	}
	if _, err := c.Dashboard.Location(); err != nil {
		return err
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.connect_retries", 5)
	v.SetDefault("database.connect_delay", 500*time.Millisecond)
	// Пустые дефолты нужны, чтобы AutomaticEnv подхватил REDIS_ADDR и соседей
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.scope", "")
	v.SetDefault("dashboard.mode", ModePrimary)
	v.SetDefault("dashboard.refresh_interval", 30*time.Second)
	v.SetDefault("dashboard.refresh_timeout", 10*time.Second)
	v.SetDefault("dashboard.audit_limit", 100)
	v.SetDefault("dashboard.timezone", "Local")
	v.SetDefault("dashboard.snapshot_ttl", time.Minute)
	v.SetDefault("dashboard.manual_refresh_rps", 0.2)
	v.SetDefault("dashboard.manual_refresh_burst", 1)
	v.SetDefault("source.cb_max_requests", 1)
	v.SetDefault("source.cb_interval", time.Minute)
	v.SetDefault("source.cb_timeout", 30*time.Second)
	v.SetDefault("source.cb_failures", 3)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}
