// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/callback"
	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/config"
	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/dataapi"
	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/journal"
	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/secret"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	awsCfg, err := cfg.ToAwsConfig(context.Background())
	if err != nil {
		slog.Error("Failed to load AWS config", "error", err)
		os.Exit(1)
	}

	var recorder journal.Recorder = journal.Nop{}
	if cfg.JournalEnabled() {
		recorder = journal.NewS3Recorder(awsCfg, cfg.JournalBucket, cfg.JournalPrefix)
	}

	handler := NewHandler(
		dataapi.NewClient(awsCfg),
		secret.NewResolver(awsCfg),
		callback.NewHTTPResponder(cfg.CallbackTimeout),
		recorder,
		cfg.CallbackTimeout,
	)

	lambda.Start(handler.Handle)
}
