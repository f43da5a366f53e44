// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"

	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/callback"
	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/dataapi"
	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/journal"
	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/props"
	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/schema"
	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/status"
)

// defaultCallbackReserve is kept back from the invocation deadline for the
// response and journal writes when no reserve is configured.
const defaultCallbackReserve = 5 * time.Second

type passwordResolver interface {
	Password(ctx context.Context, secretArn string) (string, error)
}

// Handler answers CloudFormation custom resource events for a pgvector
// store. Create provisions the schema; Update and Delete are no-ops. Every
// invocation sends exactly one response.
type Handler struct {
	sequencer *schema.Sequencer
	passwords passwordResolver
	responder callback.Responder
	journal   journal.Recorder
	reserve   time.Duration
}

// NewHandler builds a Handler. reserve is the time kept back from the
// invocation deadline so the response can still be sent after provisioning
// runs out of time.
func NewHandler(executor dataapi.Executor, passwords passwordResolver, responder callback.Responder, recorder journal.Recorder, reserve time.Duration) *Handler {
	if recorder == nil {
		recorder = journal.Nop{}
	}
	if reserve <= 0 {
		reserve = defaultCallbackReserve
	}
	return &Handler{
		sequencer: schema.NewSequencer(executor),
		passwords: passwords,
		responder: responder,
		journal:   recorder,
		reserve:   reserve,
	}
}

// Handle is the Lambda entry point. Provisioning failures are reported to
// CloudFormation, not returned; the returned error is the failure to
// deliver that report.
func (h *Handler) Handle(ctx context.Context, event cfn.Event) error {
	entry := &journal.Entry{
		RunID:             uuid.NewString(),
		RequestType:       string(event.RequestType),
		RequestID:         event.RequestID,
		StackID:           event.StackID,
		LogicalResourceID: event.LogicalResourceID,
		StartedAt:         time.Now().UTC(),
	}

	logger := slog.With("run_id", entry.RunID, "request_type", event.RequestType, "logical_id", event.LogicalResourceID)
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With("aws_request_id", lc.AwsRequestID)
	}
	logger.Info("Received custom resource event", "stack_id", event.StackID, "resource_type", event.ResourceType)

	workCtx, cancel := h.provisioningContext(ctx)
	outcome := h.dispatch(workCtx, logger, &event, entry)
	cancel()

	// The response goes out even when the invocation context is done.
	reportCtx, cancelReport := context.WithTimeout(context.WithoutCancel(ctx), h.reserve)
	defer cancelReport()

	sendErr := h.responder.Send(reportCtx, &event, outcome)
	if sendErr != nil {
		logger.Error("Failed to send response to CloudFormation", "status", outcome.Status, "error", sendErr)
	} else if !outcome.Succeeded() {
		logger.Warn("Reported failure to CloudFormation", "reason", outcome.Reason)
	}

	entry.Status = string(outcome.Status)
	entry.Reason = outcome.Reason
	if outcome.PhysicalResourceID != "" {
		entry.PhysicalResourceID = outcome.PhysicalResourceID
	}
	entry.FinishedAt = time.Now().UTC()
	if err := h.journal.Record(reportCtx, entry); err != nil {
		logger.Warn("Failed to record journal entry", "error", err)
	}

	if sendErr != nil {
		return fmt.Errorf("sending %s response: %w", outcome.Status, sendErr)
	}
	return nil
}

// provisioningContext ends reserve before the invocation deadline.
func (h *Handler) provisioningContext(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	return context.WithDeadline(ctx, deadline.Add(-h.reserve))
}

func (h *Handler) dispatch(ctx context.Context, logger *slog.Logger, event *cfn.Event, entry *journal.Entry) (outcome status.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Handler panicked", "panic", r, "stack", string(debug.Stack()))
			outcome = status.Failure(fallbackPhysicalID(event), fmt.Errorf("handler panicked: %v", r))
		}
	}()

	switch event.RequestType {
	case cfn.RequestCreate:
		return h.create(ctx, logger, event, entry)
	case cfn.RequestUpdate:
		return h.update(logger, event, entry)
	case cfn.RequestDelete:
		return h.delete(logger, event)
	default:
		logger.Error("Unsupported request type")
		return status.Failure(fallbackPhysicalID(event), fmt.Errorf("unsupported request type %q", event.RequestType))
	}
}

func (h *Handler) create(ctx context.Context, logger *slog.Logger, event *cfn.Event, entry *journal.Entry) status.Outcome {
	req, err := props.Parse(event.ResourceProperties)
	if err != nil {
		logger.Error("Invalid resource properties", "error", err)
		return status.Failure(fallbackPhysicalID(event), err)
	}

	physicalID := req.PhysicalID()
	entry.PhysicalResourceID = physicalID

	if req.DatabasePassword == "" {
		password, err := h.passwords.Password(ctx, req.DatabasePasswordSecretArn)
		if err != nil {
			logger.Error("Failed to resolve role password", "error", err)
			return status.Failure(physicalID, fmt.Errorf("resolving %s: %w", props.FieldDatabasePasswordSecretArn, err))
		}
		req.DatabasePassword = password
	}

	report, err := h.sequencer.Run(ctx, req)
	entry.Statements = statementRecords(report)
	if err != nil {
		logger.Error("Provisioning failed, applied statements are left in place",
			"request", req, "applied", len(entry.Statements), "error", err)
		return status.Failure(physicalID, err)
	}

	logger.Info("Vector store provisioned", "request", req, "physical_id", physicalID)
	return status.Success(physicalID)
}

// update does not reconcile changes to an existing store.
func (h *Handler) update(logger *slog.Logger, event *cfn.Event, entry *journal.Entry) status.Outcome {
	changed := props.Changed(event.OldResourceProperties, event.ResourceProperties)
	entry.ChangedProperties = changed
	if len(changed) > 0 {
		logger.Warn("Update leaves the provisioned schema unchanged", "changed_properties", changed)
	}
	return status.Success(event.PhysicalResourceID)
}

// delete leaves role, schema, table and index in place.
func (h *Handler) delete(logger *slog.Logger, event *cfn.Event) status.Outcome {
	logger.Info("Delete leaves database objects in place", "physical_id", event.PhysicalResourceID)
	return status.Success(event.PhysicalResourceID)
}

func statementRecords(report *schema.Report) []journal.StatementRecord {
	if report == nil {
		return nil
	}
	records := make([]journal.StatementRecord, 0, len(report.Executed))
	for i, executed := range report.Executed {
		record := journal.StatementRecord{
			Step: i + 1,
			Name: executed.Statement.Name,
			SQL:  executed.Statement.String(),
		}
		if executed.Result != nil {
			record.RecordsUpdated = executed.Result.RecordsUpdated
			record.GeneratedFields = executed.Result.GeneratedFields
		}
		records = append(records, record)
	}
	return records
}

// fallbackPhysicalID is used when no physical id can be derived from the
// request. CloudFormation requires one even on failure.
func fallbackPhysicalID(event *cfn.Event) string {
	if event.PhysicalResourceID != "" {
		return event.PhysicalResourceID
	}
	if lambdacontext.LogStreamName != "" {
		return lambdacontext.LogStreamName
	}
	return event.LogicalResourceID
}
