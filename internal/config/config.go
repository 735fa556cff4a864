/**
 * @description
 * This package handles configuration management for the club service. It uses
 * the Viper library to read configuration from environment variables (and an
 * optional .env file), providing a centralized way to manage settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration variables for the club service. These values
// are loaded from environment variables.
type Config struct {
	ServerPort                string `mapstructure:"SERVER_PORT"`
	DatabaseURL               string `mapstructure:"DATABASE_URL"`
	RedisURL                  string `mapstructure:"REDIS_URL"`
	RabbitMQURL               string `mapstructure:"RABBITMQ_URL"`
	ClubEventExchange         string `mapstructure:"CLUB_EVENT_EXCHANGE"`
	ClubEventQueue            string `mapstructure:"CLUB_EVENT_QUEUE"`
	ClerkJWKSURL              string `mapstructure:"CLERK_JWKS_URL"`
	StripeAPIBaseURL          string `mapstructure:"STRIPE_API_BASE_URL"`
	StripeAPIKey              string `mapstructure:"STRIPE_API_KEY"`
	StripeMembershipPriceID   string `mapstructure:"STRIPE_MEMBERSHIP_PRICE_ID"`
	LLMAPIBaseURL             string `mapstructure:"LLM_API_BASE_URL"`
	LLMAPIKey                 string `mapstructure:"LLM_API_KEY"`
	LLMModel                  string `mapstructure:"LLM_MODEL"`
	RegistrationRateLimit     int    `mapstructure:"REGISTRATION_RATE_LIMIT_PER_MINUTE"`
	AssistantRateLimit        int    `mapstructure:"ASSISTANT_RATE_LIMIT_PER_MINUTE"`
	RateLimitPrefix           string `mapstructure:"RATE_LIMIT_PREFIX"`
	WorkshopFinishJobSchedule string `mapstructure:"WORKSHOP_FINISH_JOB_SCHEDULE"`
	SubscriptionLapseSchedule string `mapstructure:"SUBSCRIPTION_LAPSE_JOB_SCHEDULE"`
	RefundRetryJobSchedule    string `mapstructure:"REFUND_RETRY_JOB_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to automatically bind environment variables to the
// Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("CLUB_EVENT_EXCHANGE", "club.events")
	viper.SetDefault("CLUB_EVENT_QUEUE", "club_service.events")
	viper.SetDefault("LLM_MODEL", "gpt-4o-mini")
	viper.SetDefault("REGISTRATION_RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("ASSISTANT_RATE_LIMIT_PER_MINUTE", 10)
	viper.SetDefault("RATE_LIMIT_PREFIX", "dhc:rate_limit")
	viper.SetDefault("WORKSHOP_FINISH_JOB_SCHEDULE", "*/15 * * * *")
	viper.SetDefault("SUBSCRIPTION_LAPSE_JOB_SCHEDULE", "0 3 * * *")
	viper.SetDefault("REFUND_RETRY_JOB_SCHEDULE", "*/30 * * * *")

	// Bind environment variables explicitly to ensure they appear in Unmarshal.
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("CLUB_EVENT_EXCHANGE")
	_ = viper.BindEnv("CLUB_EVENT_QUEUE")
	_ = viper.BindEnv("CLERK_JWKS_URL")
	_ = viper.BindEnv("STRIPE_API_BASE_URL")
	_ = viper.BindEnv("STRIPE_API_KEY")
	_ = viper.BindEnv("STRIPE_MEMBERSHIP_PRICE_ID")
	_ = viper.BindEnv("LLM_API_BASE_URL")
	_ = viper.BindEnv("LLM_API_KEY")
	_ = viper.BindEnv("LLM_MODEL")
	_ = viper.BindEnv("REGISTRATION_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("ASSISTANT_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("WORKSHOP_FINISH_JOB_SCHEDULE")
	_ = viper.BindEnv("SUBSCRIPTION_LAPSE_JOB_SCHEDULE")
	_ = viper.BindEnv("REFUND_RETRY_JOB_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Fall back to environment values for any other read error too;
			// a malformed optional file should not take the service down.
			err = nil
		} else {
			err = nil
		}
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RateLimitPrefix = strings.TrimSpace(config.RateLimitPrefix)
	if config.RateLimitPrefix == "" {
		config.RateLimitPrefix = "dhc:rate_limit"
	}
	if config.RegistrationRateLimit <= 0 {
		config.RegistrationRateLimit = 30
	}
	if config.AssistantRateLimit <= 0 {
		config.AssistantRateLimit = 10
	}

	return
}
