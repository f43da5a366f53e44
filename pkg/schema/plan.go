// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package schema

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/dataapi"
	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/props"
)

// Step names, in execution order.
const (
	StepEnableExtension = "enable extension"
	StepCreateRole      = "create role"
	StepCreateSchema    = "create schema"
	StepGrantSchema     = "grant schema"
	StepCreateTable     = "create table"
	StepGrantTable      = "grant table"
	StepCreateIndex     = "create index"
)

// Steps lists the step names in the order Plan emits them.
var Steps = []string{
	StepEnableExtension,
	StepCreateRole,
	StepCreateSchema,
	StepGrantSchema,
	StepCreateTable,
	StepGrantTable,
	StepCreateIndex,
}

const (
	createRole       = "CREATE ROLE %s WITH PASSWORD %s LOGIN"
	redactedPassword = "'***'"
)

// Plan returns the statements that provision req, in the only order that
// works: every statement after the first references an object created by an
// earlier one.
func Plan(req *props.Request) ([]dataapi.Statement, error) {
	if req.DatabasePassword == "" {
		return nil, &props.InputError{Field: props.FieldDatabasePassword}
	}
	if req.Dimension < props.MinDimension || req.Dimension > props.MaxDimension {
		return nil, &props.InputError{
			Field:  props.FieldDimension,
			Reason: fmt.Sprintf("%d is outside [%d, %d]", req.Dimension, props.MinDimension, props.MaxDimension),
		}
	}
	if err := req.CheckTableSchema(); err != nil {
		return nil, err
	}

	schemaName, tableName := req.QualifiedTable()
	role, err := ident(req.UserName)
	if err != nil {
		return nil, err
	}
	schema, err := ident(schemaName)
	if err != nil {
		return nil, err
	}
	table, err := ident(schemaName, tableName)
	if err != nil {
		return nil, err
	}
	pk, err := ident(req.PrimaryKeyField)
	if err != nil {
		return nil, err
	}
	vector, err := ident(req.VectorField)
	if err != nil {
		return nil, err
	}
	text, err := ident(req.TextField)
	if err != nil {
		return nil, err
	}
	metadata, err := ident(req.MetadataField)
	if err != nil {
		return nil, err
	}

	return []dataapi.Statement{
		{
			Name: StepEnableExtension,
			SQL:  "CREATE EXTENSION IF NOT EXISTS vector",
		},
		{
			// Utility statements take no bind parameters, so the password is a literal.
			Name:     StepCreateRole,
			SQL:      fmt.Sprintf(createRole, role, quoteLiteral(req.DatabasePassword)),
			Redacted: fmt.Sprintf(createRole, role, redactedPassword),
		},
		{
			Name: StepCreateSchema,
			SQL:  fmt.Sprintf("CREATE SCHEMA %s", schema),
		},
		{
			Name: StepGrantSchema,
			SQL:  fmt.Sprintf("GRANT ALL ON SCHEMA %s TO %s", schema, role),
		},
		{
			Name: StepCreateTable,
			SQL: fmt.Sprintf("CREATE TABLE %s (%s uuid PRIMARY KEY, %s vector(%d), %s text, %s json)",
				table, pk, vector, req.Dimension, text, metadata),
		},
		{
			Name: StepGrantTable,
			SQL:  fmt.Sprintf("GRANT ALL ON TABLE %s TO %s", table, role),
		},
		{
			Name:                 StepCreateIndex,
			SQL:                  fmt.Sprintf("CREATE INDEX ON %s USING hnsw (%s vector_cosine_ops)", table, vector),
			ContinueAfterTimeout: true,
		},
	}, nil
}

// ident validates each part, folds it the way PostgreSQL folds unquoted
// names and returns the quoted, dot-joined identifier.
func ident(parts ...string) (string, error) {
	id := make(pgx.Identifier, 0, len(parts))
	for _, part := range parts {
		if !props.IsIdentifier(part) {
			return "", fmt.Errorf("invalid SQL identifier %q", part)
		}
		id = append(id, strings.ToLower(part))
	}
	return id.Sanitize(), nil
}

// quoteLiteral quotes s as a standard conforming string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
