// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package dataapi

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata"
	"github.com/stretchr/testify/mock"
)

type mockRDSDataClient struct {
	mock.Mock
}

func (m *mockRDSDataClient) ExecuteStatement(ctx context.Context, input *rdsdata.ExecuteStatementInput, optFns ...func(*rdsdata.Options)) (*rdsdata.ExecuteStatementOutput, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(*rdsdata.ExecuteStatementOutput), args.Error(1)
}

func matchSQL(sql string) any {
	return mock.MatchedBy(func(input *rdsdata.ExecuteStatementInput) bool {
		return input.Sql != nil && *input.Sql == sql
	})
}
