// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/cfn"

	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/status"
)

// Responder delivers the terminal outcome of an invocation to CloudFormation.
type Responder interface {
	Send(ctx context.Context, event *cfn.Event, outcome status.Outcome) error
}

// HTTPResponder PUTs the response document to the pre-signed ResponseURL.
type HTTPResponder struct {
	client *http.Client
}

var _ Responder = &HTTPResponder{}

func NewHTTPResponder(timeout time.Duration) *HTTPResponder {
	return &HTTPResponder{client: &http.Client{Timeout: timeout}}
}

// Send makes exactly one attempt.
func (r *HTTPResponder) Send(ctx context.Context, event *cfn.Event, outcome status.Outcome) error {
	if event.ResponseURL == "" {
		return fmt.Errorf("event %s has no ResponseURL", event.RequestID)
	}

	body, err := json.Marshal(outcome.Response(event))
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, event.ResponseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build response request: %w", err)
	}
	// The URL is pre-signed with an empty content type.
	req.Header.Del("Content-Type")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("response URL returned status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	slog.Info("Sent response to CloudFormation",
		"status", outcome.Status, "request_id", event.RequestID, "physical_id", outcome.PhysicalResourceID)
	return nil
}
