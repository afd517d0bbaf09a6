package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/erinlkolp/erin-slack-notes-bot/internal/errs"
)

// Config holds all environment configuration for the bot
type Config struct {
	SlackBotToken      string `validate:"required,startswith=xoxb-"`
	SlackSigningSecret string `validate:"required"`
	SlackAppToken      string `validate:"required,startswith=xapp-"`

	MySQLHost     string `validate:"required"`
	MySQLPort     int    `validate:"required,min=1,max=65535"`
	MySQLDatabase string `validate:"required"`
	MySQLUser     string `validate:"required"`
	MySQLPassword string `validate:"required"`

	MetricsPort int `validate:"min=1,max=65535"`
}

// envNames maps struct fields back to the environment variables they came from
var envNames = map[string]string{
	"SlackBotToken":      "SLACK_BOT_TOKEN",
	"SlackSigningSecret": "SLACK_SIGNING_SECRET",
	"SlackAppToken":      "SLACK_APP_TOKEN",
	"MySQLHost":          "MYSQL_HOST",
	"MySQLPort":          "MYSQL_PORT",
	"MySQLDatabase":      "MYSQL_DATABASE",
	"MySQLUser":          "MYSQL_USER",
	"MySQLPassword":      "MYSQL_PASSWORD",
	"MetricsPort":        "METRICS_PORT",
}

// Load reads configuration from the environment and validates it
func Load() (*Config, error) {
	cfg := &Config{
		SlackBotToken:      os.Getenv("SLACK_BOT_TOKEN"),
		SlackSigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
		SlackAppToken:      os.Getenv("SLACK_APP_TOKEN"),
		MySQLHost:          getEnv("MYSQL_HOST", "localhost"),
		MySQLPort:          getEnvAsInt("MYSQL_PORT", 3306),
		MySQLDatabase:      os.Getenv("MYSQL_DATABASE"),
		MySQLUser:          os.Getenv("MYSQL_USER"),
		MySQLPassword:      os.Getenv("MYSQL_PASSWORD"),
		MetricsPort:        getEnvAsInt("METRICS_PORT", 9090),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DSN builds the MySQL data source name
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		c.MySQLUser,
		c.MySQLPassword,
		c.MySQLHost,
		c.MySQLPort,
		c.MySQLDatabase,
	)
}

func (c *Config) validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	details := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := envNames[fe.Field()]
		if name == "" {
			name = fe.Field()
		}
		switch fe.Tag() {
		case "startswith":
			details = append(details, fmt.Sprintf("%s should start with '%s'", name, fe.Param()))
		case "min", "max":
			details = append(details, fmt.Sprintf("%s is out of range", name))
		default:
			details = append(details, fmt.Sprintf("%s is not set", name))
		}
	}

	return fmt.Errorf("%w: %s", errs.ErrInvalidConfig, strings.Join(details, ", "))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %v, falling back to default %d", key, err, defaultValue)
		return defaultValue
	}
	return value
}
