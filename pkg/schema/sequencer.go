// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package schema

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/dataapi"
	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/helper"
	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/props"
)

// StepError reports the statement that stopped a run. Statements before it
// have been applied and are not undone.
type StepError struct {
	Step  int
	Total int
	Name  string
	Kind  helper.Kind
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s (step %d of %d): %v", e.Name, e.Step, e.Total, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Executed is one statement that completed.
type Executed struct {
	Statement dataapi.Statement
	Result    *dataapi.Result
}

// Report lists what a run applied, up to the failing statement.
type Report struct {
	Planned  int
	Executed []Executed
}

type Sequencer struct {
	executor dataapi.Executor
}

func NewSequencer(executor dataapi.Executor) *Sequencer {
	return &Sequencer{executor: executor}
}

// Run executes the plan for req one statement at a time and stops at the
// first failure. The report is returned in both cases.
func (s *Sequencer) Run(ctx context.Context, req *props.Request) (*Report, error) {
	report := &Report{}

	statements, err := Plan(req)
	if err != nil {
		return report, fmt.Errorf("planning statements: %w", err)
	}
	report.Planned = len(statements)

	target := req.Target()
	for i, stmt := range statements {
		if err := ctx.Err(); err != nil {
			kind, _ := helper.ClassifyStatementError(err)
			return report, &StepError{Step: i + 1, Total: len(statements), Name: stmt.Name, Kind: kind, Err: err}
		}

		slog.Info("Executing provisioning statement",
			"step", i+1, "total", len(statements), "statement", stmt.Name, "sql", stmt.String())

		result, err := s.executor.Execute(ctx, target, stmt)
		if err != nil {
			kind, _ := helper.ClassifyStatementError(err)
			return report, &StepError{
				Step:  i + 1,
				Total: len(statements),
				Name:  stmt.Name,
				Kind:  kind,
				Err:   err,
			}
		}
		report.Executed = append(report.Executed, Executed{Statement: stmt, Result: result})
	}

	slog.Info("Provisioning statements complete", "request", req, "statements", len(report.Executed))
	return report, nil
}
