// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package arn

import (
	"fmt"
	"strings"

	awsarn "github.com/aws/aws-sdk-go-v2/aws/arn"
)

// IdFrom returns the trailing resource id of an ARN, e.g. the cluster
// identifier of arn:aws:rds:us-east-1:123456789012:cluster:my-cluster.
func IdFrom(arn string) string {
	frags := strings.Split(arn, "/")
	if len(frags) == 2 {
		return frags[len(frags)-1]
	}

	frags = strings.Split(arn, ":")
	return frags[len(frags)-1]
}

// Validate checks that s is a well formed ARN for the given service.
func Validate(s, service string) error {
	parsed, err := awsarn.Parse(s)
	if err != nil {
		return err
	}
	if service != "" && parsed.Service != service {
		return fmt.Errorf("expected a %s ARN, got service %q", service, parsed.Service)
	}
	if parsed.Resource == "" {
		return fmt.Errorf("arn %q has no resource", s)
	}
	return nil
}

// StackName extracts the stack name from a CloudFormation stack id
// (arn:aws:cloudformation:<region>:<account>:stack/<name>/<guid>).
// Anything that does not look like a stack ARN is returned unchanged.
func StackName(stackID string) string {
	parsed, err := awsarn.Parse(stackID)
	if err != nil {
		return stackID
	}
	frags := strings.Split(parsed.Resource, "/")
	if len(frags) >= 2 && frags[0] == "stack" {
		return frags[1]
	}
	return parsed.Resource
}

// PhysicalID names a provisioned vector store as
// <cluster-id>/<database>/<schema>.<table>.
func PhysicalID(resourceArn, database, schema, table string) string {
	return fmt.Sprintf("%s/%s/%s.%s", IdFrom(resourceArn), database, schema, table)
}
