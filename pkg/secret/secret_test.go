// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package secret

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const secretArn = "arn:aws:secretsmanager:us-east-1:123456789012:secret:kb-app-XyZ123"

type mockSecretsClient struct {
	mock.Mock
}

func (m *mockSecretsClient) GetSecretValue(ctx context.Context, input *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(*secretsmanager.GetSecretValueOutput), args.Error(1)
}

func matchSecretID(id string) any {
	return mock.MatchedBy(func(input *secretsmanager.GetSecretValueInput) bool {
		return input.SecretId != nil && *input.SecretId == id
	})
}

func TestPassword(t *testing.T) {
	cases := []struct {
		name    string
		secret  string
		want    string
		wantErr string
	}{
		{name: "json secret", secret: `{"username":"app_role","password":"p@ss'word"}`, want: "p@ss'word"},
		{name: "plain secret", secret: "hunter2", want: "hunter2"},
		{name: "json without password", secret: `{"username":"app_role"}`, wantErr: `no "password" field`},
		{name: "malformed json", secret: `{"password":`, wantErr: "not valid JSON"},
		{name: "empty", secret: "  ", wantErr: "is empty"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			client := &mockSecretsClient{}
			client.On("GetSecretValue", ctx, matchSecretID(secretArn)).Return(
				&secretsmanager.GetSecretValueOutput{SecretString: aws.String(tc.secret)}, nil,
			)

			password, err := NewFromAPI(client).Password(ctx, secretArn)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, password)
			client.AssertExpectations(t)
		})
	}
}

func TestPassword_BinarySecret(t *testing.T) {
	ctx := context.Background()
	client := &mockSecretsClient{}
	client.On("GetSecretValue", ctx, matchSecretID(secretArn)).Return(
		&secretsmanager.GetSecretValueOutput{SecretBinary: []byte{0x1}}, nil,
	)

	_, err := NewFromAPI(client).Password(ctx, secretArn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no string value")
}

func TestPassword_APIError(t *testing.T) {
	ctx := context.Background()
	client := &mockSecretsClient{}
	client.On("GetSecretValue", ctx, matchSecretID(secretArn)).Return(
		(*secretsmanager.GetSecretValueOutput)(nil), fmt.Errorf("AccessDeniedException"),
	)

	_, err := NewFromAPI(client).Password(ctx, secretArn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read secret "+secretArn)
}
