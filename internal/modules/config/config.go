package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

// Config ...
type Config struct {
	DB      string `yaml:"db_dsn"`
	Service struct {
		HealthAddr string `yaml:"health_addr"`
	} `yaml:"service"`
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	// Tick source: "http" fetches windows from the market service,
	// "postgres" reads the local tick history table.
	TickSource string `yaml:"tick_source"`
	Market     struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"market"`

	// Live feed ingestion (optional, fills the tick history table).
	Feed struct {
		URL         string   `yaml:"url"`
		Instruments []string `yaml:"instruments"`
	} `yaml:"feed"`

	// Worker tuning, overridable via env.
	BatchSize    int           // CLAIM_BATCH_SIZE
	PollInterval time.Duration // POLL_INTERVAL
	WorkerCount  int           // WORKER_COUNT
	MaxSlippage  float64       // MAX_SLIPPAGE, in price units

	IngestFlushSize     int           // INGEST_FLUSH_SIZE
	IngestFlushInterval time.Duration // INGEST_FLUSH_INTERVAL
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		TickSource: "http",

		BatchSize:    intFromEnv("CLAIM_BATCH_SIZE", 500),
		PollInterval: durationFromEnv("POLL_INTERVAL", "100ms"),
		WorkerCount:  intFromEnv("WORKER_COUNT", 1),
		MaxSlippage:  floatFromEnv("MAX_SLIPPAGE", 0.0002),

		IngestFlushSize:     intFromEnv("INGEST_FLUSH_SIZE", 200),
		IngestFlushInterval: durationFromEnv("INGEST_FLUSH_INTERVAL", "2s"),
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Telegram.ChatID = id
		}
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if config.Service.HealthAddr == "" {
		config.Service.HealthAddr = ":8080"
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := def
	if v := os.Getenv(key); v != "" {
		val = v
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
