package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Settings struct {
	MariaDBDSN      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ServerPort      int

	RedisAddr     string
	RedisPassword string

	PidAPIURL       string
	PidTokenURL     string
	PidClientID     string
	PidClientSecret string

	JWTPublicKey string

	// Inbound batching: the aggregator closes a batch at BatchMaxSize
	// events, or after BatchMaxDelay with at least one event pending.
	BatchMaxSize     int
	BatchGracePeriod time.Duration
	BatchMaxDelay    time.Duration
}

func Load() (*Settings, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found; proceeding with OS environment variables")
	}

	viper.AutomaticEnv()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	viper.SetDefault("BATCH_MAX_SIZE", 500)
	viper.SetDefault("BATCH_GRACE_PERIOD", 2)
	viper.SetDefault("BATCH_MAX_DELAY", 30)

	required := []string{
		"MARIADB_DSN",
		"MARIADB_MAX_OPEN_CONN",
		"MARIADB_MAX_IDLE_CONNS",
		"MARIADB_CONN_MAX_LIFETIME",
		"SERVER_PORT",
		"PID_API_URL",
		"PID_TOKEN_URL",
		"PID_CLIENT_ID",
		"PID_CLIENT_SECRET",
	}
	for _, key := range required {
		if !viper.IsSet(key) {
			return nil, fmt.Errorf("%s is required", key)
		}
	}

	return &Settings{
		MariaDBDSN:      viper.GetString("MARIADB_DSN"),
		MaxOpenConns:    viper.GetInt("MARIADB_MAX_OPEN_CONN"),
		MaxIdleConns:    viper.GetInt("MARIADB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: time.Duration(viper.GetInt("MARIADB_CONN_MAX_LIFETIME")) * time.Second,
		ServerPort:      viper.GetInt("SERVER_PORT"),

		RedisAddr:     viper.GetString("REDIS_ADDR"),
		RedisPassword: viper.GetString("REDIS_PASSWORD"),

		PidAPIURL:       viper.GetString("PID_API_URL"),
		PidTokenURL:     viper.GetString("PID_TOKEN_URL"),
		PidClientID:     viper.GetString("PID_CLIENT_ID"),
		PidClientSecret: viper.GetString("PID_CLIENT_SECRET"),

		JWTPublicKey: viper.GetString("JWT_PUBLIC_KEY"),

		BatchMaxSize:     viper.GetInt("BATCH_MAX_SIZE"),
		BatchGracePeriod: time.Duration(viper.GetInt("BATCH_GRACE_PERIOD")) * time.Second,
		BatchMaxDelay:    time.Duration(viper.GetInt("BATCH_MAX_DELAY")) * time.Second,
	}, nil
}
