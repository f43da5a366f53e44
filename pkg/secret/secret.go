// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package secret

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// PasswordKey is the field read from JSON secrets, matching the layout of
// RDS managed and generated credentials.
const PasswordKey = "password"

type secretsClientInterface interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Resolver reads role passwords from Secrets Manager.
type Resolver struct {
	client secretsClientInterface
}

func NewResolver(awsCfg aws.Config) *Resolver {
	return &Resolver{client: secretsmanager.NewFromConfig(awsCfg)}
}

// NewFromAPI allows for DI of the Secrets Manager client for testing
func NewFromAPI(client secretsClientInterface) *Resolver {
	return &Resolver{client: client}
}

// Password returns the password stored in secretArn. A JSON object secret
// yields its "password" field; any other string is the password itself.
func (r *Resolver) Password(ctx context.Context, secretArn string) (string, error) {
	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretArn),
	})
	if err != nil {
		slog.Error("SecretsManager: GetSecretValue failed", "secretArn", secretArn, "error", err)
		return "", fmt.Errorf("failed to read secret %s: %w", secretArn, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", secretArn)
	}

	raw := strings.TrimSpace(*out.SecretString)
	if strings.HasPrefix(raw, "{") {
		var fields map[string]any
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return "", fmt.Errorf("secret %s is not valid JSON: %w", secretArn, err)
		}
		password, ok := fields[PasswordKey].(string)
		if !ok || password == "" {
			return "", fmt.Errorf("secret %s has no %q field", secretArn, PasswordKey)
		}
		return password, nil
	}

	if raw == "" {
		return "", fmt.Errorf("secret %s is empty", secretArn)
	}
	return *out.SecretString, nil
}
