// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package status

import (
	"github.com/aws/aws-lambda-go/cfn"
)

// CloudFormation rejects response bodies over 4096 bytes and the reason is
// sent twice (Reason and Data.Message).
const maxReasonLength = 1024

const MessageKey = "Message"

// Outcome is the terminal result of one invocation.
type Outcome struct {
	Status             cfn.StatusType
	Reason             string
	PhysicalResourceID string
	Data               map[string]any
}

func Success(physicalID string) Outcome {
	return Outcome{
		Status:             cfn.StatusSuccess,
		PhysicalResourceID: physicalID,
		Data:               map[string]any{},
	}
}

func Failure(physicalID string, err error) Outcome {
	reason := "unknown error"
	if err != nil {
		reason = truncate(err.Error(), maxReasonLength)
	}
	return Outcome{
		Status:             cfn.StatusFailed,
		Reason:             reason,
		PhysicalResourceID: physicalID,
		Data:               map[string]any{MessageKey: reason},
	}
}

func (o Outcome) Succeeded() bool {
	return o.Status == cfn.StatusSuccess
}

// Response builds the callback body for event.
func (o Outcome) Response(event *cfn.Event) *cfn.Response {
	response := cfn.NewResponse(event)
	response.Status = o.Status
	response.Reason = o.Reason
	response.Data = o.Data
	response.PhysicalResourceID = event.PhysicalResourceID
	if o.PhysicalResourceID != "" {
		response.PhysicalResourceID = o.PhysicalResourceID
	}
	return response
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	const suffix = "... (truncated)"
	cut := n - len(suffix)
	// keep the cut on a rune boundary
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut] + suffix
}
