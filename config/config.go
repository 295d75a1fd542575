package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Inventory InventoryConfig
}

type ServerConfig struct {
	AppEnv   string
	HTTPPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers        []string
	OrdersTopic    string
	ProcessedTopic string
	GroupID        string
}

type InventoryConfig struct {
	DefaultLowStockThreshold int
	TxAttempts               int
	QueryCacheTTL            time.Duration
}

func setDefaults() {
	viper.SetDefault("APP_ENV", "dev")
	viper.SetDefault("HTTP_PORT", ":8080")

	viper.SetDefault("LOGGER_LEVEL", "debug")
	viper.SetDefault("LOGGER_ENCODING", "console")
	viper.SetDefault("LOGGER_DISABLE_CALLER", false)
	viper.SetDefault("LOGGER_DISABLE_STACKTRACE", true)

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", "5432")
	viper.SetDefault("POSTGRES_USER", "inventory")
	viper.SetDefault("POSTGRES_PASSWORD", "inventory")
	viper.SetDefault("POSTGRES_DB", "shoplane_inventory")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("POSTGRES_MAX_OPEN_CONNS", 10)
	viper.SetDefault("POSTGRES_MAX_IDLE_CONNS", 5)
	viper.SetDefault("POSTGRES_CONN_MAX_LIFETIME", 300)
	viper.SetDefault("POSTGRES_CONN_MAX_IDLE_TIME", 60)

	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_TOPIC_ORDERS", "orders.events")
	viper.SetDefault("KAFKA_TOPIC_PROCESSED", "inventory.processed")
	viper.SetDefault("KAFKA_GROUP_INVENTORY", "inventory-service")

	viper.SetDefault("INVENTORY_LOW_STOCK_THRESHOLD", 5)
	viper.SetDefault("INVENTORY_TX_ATTEMPTS", 3)
	viper.SetDefault("INVENTORY_QUERY_CACHE_TTL", 30) // seconds
}

func LoadEnv() *Config {
	viper.AutomaticEnv()
	setDefaults()

	return &Config{
		Server: ServerConfig{
			AppEnv:   viper.GetString("APP_ENV"),
			HTTPPort: viper.GetString("HTTP_PORT"),
		},
		Logger: LoggerConfig{
			Level:             viper.GetString("LOGGER_LEVEL"),
			Encoding:          viper.GetString("LOGGER_ENCODING"),
			DisableCaller:     viper.GetBool("LOGGER_DISABLE_CALLER"),
			DisableStacktrace: viper.GetBool("LOGGER_DISABLE_STACKTRACE"),
		},
		Postgres: PostgresConfig{
			Host:            viper.GetString("POSTGRES_HOST"),
			Port:            viper.GetString("POSTGRES_PORT"),
			User:            viper.GetString("POSTGRES_USER"),
			Password:        viper.GetString("POSTGRES_PASSWORD"),
			DBName:          viper.GetString("POSTGRES_DB"),
			SSLMode:         viper.GetString("POSTGRES_SSLMODE"),
			MaxOpenConns:    viper.GetInt("POSTGRES_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("POSTGRES_MAX_IDLE_CONNS"),
			ConnMaxLifetime: viper.GetInt("POSTGRES_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: viper.GetInt("POSTGRES_CONN_MAX_IDLE_TIME"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers:        strings.Split(viper.GetString("KAFKA_BROKERS"), ","),
			OrdersTopic:    viper.GetString("KAFKA_TOPIC_ORDERS"),
			ProcessedTopic: viper.GetString("KAFKA_TOPIC_PROCESSED"),
			GroupID:        viper.GetString("KAFKA_GROUP_INVENTORY"),
		},
		Inventory: InventoryConfig{
			DefaultLowStockThreshold: viper.GetInt("INVENTORY_LOW_STOCK_THRESHOLD"),
			TxAttempts:               viper.GetInt("INVENTORY_TX_ATTEMPTS"),
			QueryCacheTTL:            time.Duration(viper.GetInt("INVENTORY_QUERY_CACHE_TTL")) * time.Second,
		},
	}
}
