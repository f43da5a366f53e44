// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package dataapi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"

	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/helper"
)

// Target identifies the database a statement runs against.
type Target struct {
	ResourceArn string
	Database    string
	SecretArn   string
}

// Statement is a single, self-contained SQL statement.
type Statement struct {
	Name string
	SQL  string
	// Redacted is the loggable form of SQL when SQL carries a secret.
	Redacted   string
	Parameters []rdstypes.SqlParameter
	// ContinueAfterTimeout keeps the statement running on the cluster after
	// the Data API stops waiting for it.
	ContinueAfterTimeout bool
}

// String returns the statement text with secrets masked.
func (s Statement) String() string {
	if s.Redacted != "" {
		return s.Redacted
	}
	return s.SQL
}

type Result struct {
	RecordsUpdated  int64
	GeneratedFields int
}

// Executor runs one statement and reports its result or failure.
type Executor interface {
	Execute(ctx context.Context, target Target, stmt Statement) (*Result, error)
}

type rdsDataClientInterface interface {
	ExecuteStatement(ctx context.Context, params *rdsdata.ExecuteStatementInput, optFns ...func(*rdsdata.Options)) (*rdsdata.ExecuteStatementOutput, error)
}

type Client struct {
	api rdsDataClientInterface
}

var _ Executor = &Client{}

func NewClient(awsCfg aws.Config) *Client {
	// DDL is not idempotent: a second attempt of CREATE ROLE after a lost
	// response fails on the object the first attempt created.
	retryer := retry.NewStandard(func(o *retry.StandardOptions) {
		o.MaxAttempts = 1
	})

	return &Client{
		api: rdsdata.NewFromConfig(awsCfg, func(o *rdsdata.Options) {
			o.Retryer = retryer
		}),
	}
}

// NewFromAPI wraps an existing Data API client, mainly for tests.
func NewFromAPI(api rdsDataClientInterface) *Client {
	return &Client{api: api}
}

// Execute sends stmt to the Data API and blocks until it returns.
func (c *Client) Execute(ctx context.Context, target Target, stmt Statement) (*Result, error) {
	if stmt.SQL == "" {
		return nil, fmt.Errorf("statement %q has no SQL", stmt.Name)
	}

	start := time.Now()
	out, err := c.api.ExecuteStatement(ctx, &rdsdata.ExecuteStatementInput{
		ResourceArn:          aws.String(target.ResourceArn),
		SecretArn:            aws.String(target.SecretArn),
		Database:             aws.String(target.Database),
		Sql:                  aws.String(stmt.SQL),
		Parameters:           stmt.Parameters,
		ContinueAfterTimeout: stmt.ContinueAfterTimeout,
	})
	if err != nil {
		kind, _ := helper.ClassifyStatementError(err)
		slog.Error("Data API statement failed",
			"statement", stmt.Name, "kind", kind, "elapsed", time.Since(start), "error", err)
		return nil, fmt.Errorf("executing statement: %w", err)
	}

	slog.Debug("Data API statement executed",
		"statement", stmt.Name, "sql", stmt.String(), "records_updated", out.NumberOfRecordsUpdated, "elapsed", time.Since(start))

	return &Result{
		RecordsUpdated:  out.NumberOfRecordsUpdated,
		GeneratedFields: len(out.GeneratedFields),
	}, nil
}
