// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/arn"
)

// StatementRecord is one applied statement. SQL is always the redacted form.
type StatementRecord struct {
	Step            int    `json:"step"`
	Name            string `json:"name"`
	SQL             string `json:"sql"`
	RecordsUpdated  int64  `json:"recordsUpdated"`
	GeneratedFields int    `json:"generatedFields,omitempty"`
}

// Entry describes one invocation.
type Entry struct {
	RunID              string            `json:"runId"`
	RequestType        string            `json:"requestType"`
	RequestID          string            `json:"requestId"`
	StackID            string            `json:"stackId"`
	LogicalResourceID  string            `json:"logicalResourceId"`
	PhysicalResourceID string            `json:"physicalResourceId,omitempty"`
	Status             string            `json:"status"`
	Reason             string            `json:"reason,omitempty"`
	ChangedProperties  []string          `json:"changedProperties,omitempty"`
	Statements         []StatementRecord `json:"statements,omitempty"`
	StartedAt          time.Time         `json:"startedAt"`
	FinishedAt         time.Time         `json:"finishedAt"`
}

// Recorder persists invocation entries.
type Recorder interface {
	Record(ctx context.Context, entry *Entry) error
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, *Entry) error { return nil }

type s3ClientInterface interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Recorder writes each entry as a JSON object.
type S3Recorder struct {
	client s3ClientInterface
	bucket string
	prefix string
}

var _ Recorder = &S3Recorder{}

func NewS3Recorder(awsCfg aws.Config, bucket, prefix string) *S3Recorder {
	return newS3RecorderWithClient(s3.NewFromConfig(awsCfg), bucket, prefix)
}

func newS3RecorderWithClient(client s3ClientInterface, bucket, prefix string) *S3Recorder {
	return &S3Recorder{client: client, bucket: bucket, prefix: prefix}
}

// Key is <prefix>/<stack-name>/<logical-id>/<run-id>.json.
func (r *S3Recorder) Key(entry *Entry) string {
	return path.Join(r.prefix, arn.StackName(entry.StackID), entry.LogicalResourceID, entry.RunID+".json")
}

func (r *S3Recorder) Record(ctx context.Context, entry *Entry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	key := r.Key(entry)
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put journal entry s3://%s/%s: %w", r.bucket, key, err)
	}
	return nil
}
