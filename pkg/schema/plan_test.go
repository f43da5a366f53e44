// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build unit

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/props"
)

func docsRequest() *props.Request {
	return &props.Request{
		ResourceArn:      "arn:aws:rds:us-east-1:123456789012:cluster:kb-cluster",
		SecretArn:        "arn:aws:secretsmanager:us-east-1:123456789012:secret:kb-admin-AbCdEf",
		DatabaseName:     "postgres",
		DatabasePassword: "s3cret",
		TableName:        "docs",
		SchemaName:       "app",
		UserName:         "app_role",
		PrimaryKeyField:  "id",
		VectorField:      "embedding",
		TextField:        "content",
		MetadataField:    "meta",
		Dimension:        1536,
	}
}

func TestPlan_StatementsInOrder(t *testing.T) {
	statements, err := Plan(docsRequest())
	require.NoError(t, err)
	require.Len(t, statements, 7)

	var names []string
	for _, s := range statements {
		names = append(names, s.Name)
	}
	assert.Equal(t, Steps, names)

	assert.Equal(t, `CREATE EXTENSION IF NOT EXISTS vector`, statements[0].SQL)
	assert.Equal(t, `CREATE ROLE "app_role" WITH PASSWORD 's3cret' LOGIN`, statements[1].SQL)
	assert.Equal(t, `CREATE SCHEMA "app"`, statements[2].SQL)
	assert.Equal(t, `GRANT ALL ON SCHEMA "app" TO "app_role"`, statements[3].SQL)
	assert.Equal(t, `CREATE TABLE "app"."docs" ("id" uuid PRIMARY KEY, "embedding" vector(1536), "content" text, "meta" json)`, statements[4].SQL)
	assert.Equal(t, `GRANT ALL ON TABLE "app"."docs" TO "app_role"`, statements[5].SQL)
	assert.Equal(t, `CREATE INDEX ON "app"."docs" USING hnsw ("embedding" vector_cosine_ops)`, statements[6].SQL)
}

func TestPlan_IsPureFunctionOfRequest(t *testing.T) {
	first, err := Plan(docsRequest())
	require.NoError(t, err)
	second, err := Plan(docsRequest())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other := docsRequest()
	other.Dimension = 1024
	third, err := Plan(other)
	require.NoError(t, err)
	assert.Contains(t, third[4].SQL, "vector(1024)")
}

func TestPlan_RedactsPassword(t *testing.T) {
	statements, err := Plan(docsRequest())
	require.NoError(t, err)

	for _, s := range statements {
		assert.NotContains(t, s.String(), "s3cret", s.Name)
	}
	assert.Equal(t, `CREATE ROLE "app_role" WITH PASSWORD '***' LOGIN`, statements[1].String())
}

func TestPlan_EscapesPasswordQuotes(t *testing.T) {
	req := docsRequest()
	req.DatabasePassword = "it's'; DROP ROLE admin; --"

	statements, err := Plan(req)
	require.NoError(t, err)
	assert.Equal(t, `CREATE ROLE "app_role" WITH PASSWORD 'it''s''; DROP ROLE admin; --' LOGIN`, statements[1].SQL)
}

func TestPlan_OnlyIndexContinuesAfterTimeout(t *testing.T) {
	statements, err := Plan(docsRequest())
	require.NoError(t, err)

	for i, s := range statements {
		assert.Equal(t, i == len(statements)-1, s.ContinueAfterTimeout, s.Name)
	}
}

func TestPlan_QualifiedTableName(t *testing.T) {
	req := docsRequest()
	req.SchemaName = "bedrock_integration"
	req.TableName = "bedrock_integration.bedrock_kb"

	statements, err := Plan(req)
	require.NoError(t, err)
	assert.Equal(t, `CREATE SCHEMA "bedrock_integration"`, statements[2].SQL)
	assert.Contains(t, statements[4].SQL, `CREATE TABLE "bedrock_integration"."bedrock_kb" (`)
}

func TestPlan_FoldsIdentifierCase(t *testing.T) {
	req := docsRequest()
	req.SchemaName = "App"
	req.UserName = "App_Role"
	req.VectorField = "Embedding"

	statements, err := Plan(req)
	require.NoError(t, err)
	assert.Equal(t, `GRANT ALL ON SCHEMA "app" TO "app_role"`, statements[3].SQL)
	assert.Contains(t, statements[6].SQL, `("embedding" vector_cosine_ops)`)
}

func TestPlan_RejectsUnsafeIdentifiers(t *testing.T) {
	cases := map[string]func(*props.Request){
		"user":     func(r *props.Request) { r.UserName = `x" WITH SUPERUSER; --` },
		"schema":   func(r *props.Request) { r.SchemaName = "app; DROP SCHEMA public" },
		"column":   func(r *props.Request) { r.TextField = "content text, evil" },
		"metadata": func(r *props.Request) { r.MetadataField = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := docsRequest()
			mutate(req)
			_, err := Plan(req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid SQL identifier")
		})
	}
}

func TestPlan_RequiresPasswordAndDimension(t *testing.T) {
	var inputErr *props.InputError

	req := docsRequest()
	req.DatabasePassword = ""
	_, err := Plan(req)
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, props.FieldDatabasePassword, inputErr.Field)

	req = docsRequest()
	req.Dimension = props.MaxDimension + 1
	_, err = Plan(req)
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, props.FieldDimension, inputErr.Field)
	assert.Equal(t, "invalid property Dimension: 2001 is outside [1, 2000]", err.Error())
}

func TestPlan_RejectsTableInOtherSchema(t *testing.T) {
	req := docsRequest()
	req.TableName = "other.docs"

	_, err := Plan(req)
	var inputErr *props.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, props.FieldTableName, inputErr.Field)
}
