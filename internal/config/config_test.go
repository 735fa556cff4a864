package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "REGISTRATION_RATE_LIMIT_PER_MINUTE")
	unsetEnvWithCleanup(t, "RATE_LIMIT_PREFIX")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default server port 8080, got %q", cfg.ServerPort)
	}
	if cfg.RegistrationRateLimit != 30 {
		t.Fatalf("expected default registration rate limit 30, got %d", cfg.RegistrationRateLimit)
	}
	if cfg.RateLimitPrefix != "dhc:rate_limit" {
		t.Fatalf("expected default rate limit prefix, got %q", cfg.RateLimitPrefix)
	}
	if cfg.ClubEventExchange != "club.events" {
		t.Fatalf("expected default exchange club.events, got %q", cfg.ClubEventExchange)
	}
}

func TestLoadConfig_ReadsEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "9090")
	setEnvWithCleanup(t, "DATABASE_URL", "postgres://localhost/dhc")
	setEnvWithCleanup(t, "STRIPE_API_KEY", "sk_test_123")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9090" {
		t.Fatalf("expected server port 9090, got %q", cfg.ServerPort)
	}
	if cfg.DatabaseURL != "postgres://localhost/dhc" {
		t.Fatalf("expected database url from env, got %q", cfg.DatabaseURL)
	}
	if cfg.StripeAPIKey != "sk_test_123" {
		t.Fatalf("expected stripe key from env, got %q", cfg.StripeAPIKey)
	}
}

func TestLoadConfig_CoercesInvalidRateLimits(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "REGISTRATION_RATE_LIMIT_PER_MINUTE", "-5")
	setEnvWithCleanup(t, "ASSISTANT_RATE_LIMIT_PER_MINUTE", "0")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.RegistrationRateLimit != 30 {
		t.Fatalf("expected negative registration rate limit coerced to 30, got %d", cfg.RegistrationRateLimit)
	}
	if cfg.AssistantRateLimit != 10 {
		t.Fatalf("expected zero assistant rate limit coerced to 10, got %d", cfg.AssistantRateLimit)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
		}
	})
}
