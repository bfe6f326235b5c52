// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	Application             `yaml:"application"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                RabbitMQ   `yaml:"rabbitmq"`
	Email                   Email      `yaml:"email"`
	Auth                    Auth       `yaml:"auth"`
	Operator                Operator   `yaml:"operator"`
	Newsletter              Newsletter `yaml:"newsletter"`
}

// Application общие параметры приложения
type Application struct {
	BaseURL string `yaml:"base_url" env:"APP_BASE_URL" env-default:"http://127.0.0.1:8080"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"1h"`
}

// RabbitMQ настройки очереди выпусков. Пустой URL отключает асинхронную публикацию.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	MaxRetries int           `yaml:"max_retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Queue      string        `yaml:"queue" env-default:"newsletter.issues"`
}

// Email настройки отправки писем
type Email struct {
	Provider     string        `yaml:"provider" env:"EMAIL_PROVIDER" env-default:"smtp"`
	Sender       string        `yaml:"sender" env:"EMAIL_SENDER"`
	Timeout      time.Duration `yaml:"timeout" env-default:"10s"`
	SMTPHost     string        `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort     string        `yaml:"smtp_port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser     string        `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPass     string        `yaml:"smtp_pass" env:"SMTP_PASS"`
	SESRegion    string        `yaml:"ses_region" env:"SES_REGION" env-default:"us-east-1"`
	SESAccessKey string        `yaml:"ses_access_key" env:"SES_ACCESS_KEY"`
	SESSecretKey string        `yaml:"ses_secret_key" env:"SES_SECRET_KEY"`
}

// Auth настройки проверки учётных данных
type Auth struct {
	VerifyWorkers int `yaml:"verify_workers" env-default:"4"`
}

// Operator учётная запись оператора, создаваемая при старте, если её ещё нет
type Operator struct {
	Username string `yaml:"username" env:"OPERATOR_USERNAME"`
	Password string `yaml:"password" env:"OPERATOR_PASSWORD"`
}

// Newsletter настройки рассылки
type Newsletter struct {
	// FailurePolicy "continue" или "abort"
	FailurePolicy string `yaml:"failure_policy" env-default:"continue"`
}

// Load читает конфиг из файла path и переменных окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига, путь берётся из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"BaseURL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Redis: %s\n"+
			"RabbitMQ queue: %s\n"+
			"Email:\n"+
			"  Provider: %s\n"+
			"  Sender: %s\n"+
			"  Timeout: %s\n"+
			"Newsletter failure policy: %s\n",
		c.Env,
		c.BaseURL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressRedis,
		c.RabbitMQ.Queue,
		c.Email.Provider,
		c.Email.Sender,
		c.Email.Timeout,
		c.Newsletter.FailurePolicy,
	)
}
