package config

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Configuration struct {
	Logs      LogsSettings     `mapstructure:"logs"`
	App       Application      `mapstructure:"app"`
	Database  Database         `mapstructure:"database"`
	Queue     QueueConfig      `mapstructure:"queue"`
	Redis     Redis            `mapstructure:"redis"`
	Security  SecuritySettings `mapstructure:"security"`
	Server    ServerSettings   `mapstructure:"server"`
	Webhook   WebhookConfig    `mapstructure:"webhook"`
	Processor ProcessorConfig  `mapstructure:"processor"`
	Cache     CacheConfig      `mapstructure:"cache"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name     string `mapstructure:"name"`
	Timeout  int    `mapstructure:"timeout"`
	Version  string `mapstructure:"version"`
	HostLink string `mapstructure:"host-link"`
}

type Database struct {
	Url         string      `mapstructure:"url"`
	DbName      string      `mapstructure:"dbname"`
	Collections Collections `mapstructure:"collections"`
	Timeout     int         `mapstructure:"timeout"`
}

type Collections struct {
	Users  string `mapstructure:"users"`
	Queue  string `mapstructure:"queue"`
	System string `mapstructure:"system"`
}

type QueueConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Url               string `mapstructure:"url"`
	Exchange          string `mapstructure:"exchange"`
	ExchangeType      string `mapstructure:"exchange-type"`
	DeauthRoutingKey  string `mapstructure:"deauth-routing-key"`
	ProcessRoutingKey string `mapstructure:"process-routing-key"`
	ReconnectDelay    int    `mapstructure:"reconnect-delay"`
	Timeout           int    `mapstructure:"timeout"`
	Durable           bool   `mapstructure:"durable"`
	AutoDelete        bool   `mapstructure:"auto-delete"`
	Internal          bool   `mapstructure:"internal"`
	NoWait            bool   `mapstructure:"no-wait"`
}

type Redis struct {
	Url      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type SecuritySettings struct {
	JwtKey string `mapstructure:"jwt-key"`
}

type ServerSettings struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
	IdleTimeout  int    `mapstructure:"idle-timeout"`
}

type WebhookConfig struct {
	UrlToken     string `mapstructure:"url-token"`
	VerifyToken  string `mapstructure:"verify-token"`
	RelayTimeout int    `mapstructure:"relay-timeout"`
}

type ProcessorConfig struct {
	Url     string `mapstructure:"url"`
	Timeout int    `mapstructure:"timeout"`
}

type CacheConfig struct {
	UserExpirationMinutes  int    `mapstructure:"user-expiration-minutes"`
	StatsExpirationMinutes int    `mapstructure:"stats-expiration-minutes"`
	QueueStatsKey          string `mapstructure:"queue-stats-key"`
	DrainLatchKey          string `mapstructure:"drain-latch-key"`
	DrainLatchSeconds      int    `mapstructure:"drain-latch-seconds"`
}

func Load() *Configuration {
	cfg := read()
	logrus.Info("Configuration loaded")

	// Override with environment variables
	mongoUri := os.Getenv("MONGODB_URL")
	if mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	dbName := os.Getenv("DB_NAME")
	if dbName != "" {
		cfg.Database.DbName = dbName
	}

	redisUrl := os.Getenv("REDIS_URL")
	if redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	redisDB := os.Getenv("REDIS_DB")
	if redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.Db = db
		}
	}

	rabbitmqUrl := os.Getenv("RABBITMQ_URL")
	if rabbitmqUrl != "" {
		cfg.Queue.RabbitMQ.Url = rabbitmqUrl
	}

	jwtKey := os.Getenv("JWT_KEY")
	if jwtKey != "" {
		cfg.Security.JwtKey = jwtKey
	}

	urlToken := os.Getenv("WEBHOOK_URL_TOKEN")
	if urlToken != "" {
		cfg.Webhook.UrlToken = urlToken
	}

	verifyToken := os.Getenv("WEBHOOK_VERIFY_TOKEN")
	if verifyToken != "" {
		cfg.Webhook.VerifyToken = verifyToken
	}

	processorUrl := os.Getenv("PROCESSOR_URL")
	if processorUrl != "" {
		cfg.Processor.Url = processorUrl
	}

	hostLink := os.Getenv("HOST_LINK")
	if hostLink != "" {
		cfg.App.HostLink = hostLink
	}

	return cfg
}

func read() *Configuration {
	viper.SetConfigFile("src/internal/config/cfg.yml")
	viper.AutomaticEnv()
	viper.SetConfigType("yml")

	var config Configuration

	err := viper.ReadInConfig()
	if err != nil {
		logrus.Panicf("Error reading config file, %s", err)
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		logrus.Panicf("Error unmarshalling config file, %s", err)
	}

	return &config
}
