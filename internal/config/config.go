// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	PrimaryStore            `yaml:"primary_store"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	Producer                `yaml:"producer"`
	LocalCache              `yaml:"local_cache"`
	Activity                `yaml:"activity"`
	Tracing                 `yaml:"tracing"`
	Admin                   `yaml:"admin"`
}

// PrimaryStore выбор основного документного хранилища: postgres или mongo.
type PrimaryStore struct {
	Driver        string `yaml:"driver" env-default:"postgres"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database" env-default:"tutor"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env-default:"localhost:6379"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env-required:"true"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RabbitMQ настройки брокера для журнала активности.
// Пустой URL отключает публикацию: записи пишутся в redis напрямую.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url"`
	RabbitMQMaxRetries int           `yaml:"retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Producer внешний генератор учебного контента.
type Producer struct {
	ProducerURL     string        `yaml:"base_url"`
	ProducerTimeout time.Duration `yaml:"timeout" env-default:"60s"`
}

// LocalCache путь к файлу sqlite для локального уровня. Пустой путь означает кеш в памяти.
type LocalCache struct {
	LocalCachePath string `yaml:"path"`
}

// Activity настройки журнала активности.
type Activity struct {
	MaxEntries int `yaml:"max_entries" env-default:"500"`
}

// Tracing адрес OTLP/HTTP коллектора. Пустой адрес выключает трассировку.
type Tracing struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Admin учётная запись администратора, создаваемая при старте, если её нет.
type Admin struct {
	AdminUsername string `yaml:"username" env:"ADMIN_USERNAME"`
	AdminPassword string `yaml:"password" env:"ADMIN_PASSWORD"`
}

// MustLoad функция для загрузки конфига из файла CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
