// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

const defaultCallbackTimeout = 30 * time.Second

type Config struct {
	Region   string
	Profile  string
	LogLevel string

	// JournalBucket enables the S3 run journal when set.
	JournalBucket string
	JournalPrefix string

	CallbackTimeout time.Duration
}

// Load reads the configuration from the function's environment.
func Load() (*Config, error) {
	cfg := &Config{
		Region:          getEnv("AWS_REGION", ""),
		Profile:         getEnv("AWS_PROFILE", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		JournalBucket:   getEnv("JOURNAL_BUCKET", ""),
		JournalPrefix:   strings.Trim(getEnv("JOURNAL_PREFIX", "vectorstore-init"), "/"),
		CallbackTimeout: defaultCallbackTimeout,
	}

	if raw := os.Getenv("CALLBACK_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CALLBACK_TIMEOUT %q: %w", raw, err)
		}
		if timeout <= 0 {
			return nil, fmt.Errorf("CALLBACK_TIMEOUT must be positive, got %s", timeout)
		}
		cfg.CallbackTimeout = timeout
	}

	return cfg, nil
}

func (c *Config) ToAwsConfig(ctx context.Context) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	if c.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(c.Profile))
	}

	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) JournalEnabled() bool {
	return c.JournalBucket != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
