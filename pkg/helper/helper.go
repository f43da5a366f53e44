// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package helper

import (
	"context"
	"errors"

	rdstypes "github.com/aws/aws-sdk-go-v2/service/rdsdata/types"
	"github.com/aws/smithy-go"
)

// Kind is a coarse classification of a failed Data API call.
type Kind string

const (
	KindBadRequest         Kind = "BadRequest"
	KindAccessDenied       Kind = "AccessDenied"
	KindTimeout            Kind = "Timeout"
	KindNotFound           Kind = "NotFound"
	KindDatabaseError      Kind = "DatabaseError"
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindInternalFailure    Kind = "InternalFailure"
	KindServiceUnavailable Kind = "ServiceUnavailable"
	KindCanceled           Kind = "Canceled"
)

// ClassifyStatementError checks if the provided error is a known RDS Data API
// exception and returns the corresponding Kind and a boolean indicating if it
// was identified.
// E.g. StatementTimeoutException is mapped to Timeout
func ClassifyStatementError(err error) (Kind, bool) {
	if err == nil {
		return "", false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled, true
	}

	var opErr *smithy.OperationError
	if !errors.As(err, &opErr) {
		// Not an AWS operation error
		return "", false
	}

	underlyingErr := opErr.Unwrap()
	if underlyingErr == nil {
		return "", false
	}

	var badRequest *rdstypes.BadRequestException
	var forbidden *rdstypes.ForbiddenException
	var accessDenied *rdstypes.AccessDeniedException
	var statementTimeout *rdstypes.StatementTimeoutException
	var notFound *rdstypes.NotFoundException
	var databaseNotFound *rdstypes.DatabaseNotFoundException
	var databaseError *rdstypes.DatabaseErrorException
	var secretsError *rdstypes.SecretsErrorException
	var invalidSecret *rdstypes.InvalidSecretException
	var internalServerError *rdstypes.InternalServerErrorException
	var serviceUnavailable *rdstypes.ServiceUnavailableError
	var databaseUnavailable *rdstypes.DatabaseUnavailableException
	var databaseResuming *rdstypes.DatabaseResumingException

	switch {
	case errors.As(underlyingErr, &badRequest):
		// The Data API reports most SQL errors (duplicate objects, syntax) this way
		return KindBadRequest, true
	case errors.As(underlyingErr, &databaseError):
		return KindDatabaseError, true
	case errors.As(underlyingErr, &forbidden), errors.As(underlyingErr, &accessDenied):
		return KindAccessDenied, true
	case errors.As(underlyingErr, &statementTimeout):
		return KindTimeout, true
	case errors.As(underlyingErr, &notFound), errors.As(underlyingErr, &databaseNotFound):
		return KindNotFound, true
	case errors.As(underlyingErr, &secretsError), errors.As(underlyingErr, &invalidSecret):
		return KindInvalidCredentials, true
	case errors.As(underlyingErr, &internalServerError):
		return KindInternalFailure, true
	case errors.As(underlyingErr, &serviceUnavailable),
		errors.As(underlyingErr, &databaseUnavailable),
		errors.As(underlyingErr, &databaseResuming):
		// Aurora Serverless clusters resuming from pause land here
		return KindServiceUnavailable, true
	default:
		return "", false
	}
}
