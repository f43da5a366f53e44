// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package props

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/arn"
	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/dataapi"
	"github.com/platform-engineering-labs/aurora-vectorstore-init/pkg/embedding"
)

// Resource property names as they appear in the template.
const (
	FieldDimension                 = "Dimension"
	FieldResourceArn               = "ResourceArn"
	FieldSecretArn                 = "SecretArn"
	FieldDatabaseName              = "DatabaseName"
	FieldDatabasePassword          = "DatabasePassword"
	FieldDatabasePasswordSecretArn = "DatabasePasswordSecretArn"
	FieldTableName                 = "TableName"
	FieldSchemaName                = "SchemaName"
	FieldUserName                  = "UserName"
	FieldMetadataField             = "MetadataField"
	FieldPrimaryKeyField           = "PrimaryKeyField"
	FieldTextField                 = "TextField"
	FieldVectorField               = "VectorField"
	FieldEmbeddingModelID          = "EmbeddingModelId"

	// ServiceToken is injected by CloudFormation into every custom resource.
	ServiceToken = "ServiceToken"
)

// HNSW indexes in pgvector support at most 2000 dimensions.
const (
	MinDimension = 1
	MaxDimension = 2000
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterValidation("pgident", func(fl validator.FieldLevel) bool {
		return IsIdentifier(fl.Field().String())
	})
	validate.RegisterValidation("pgtable", func(fl validator.FieldLevel) bool {
		_, _, err := SplitTableName(fl.Field().String())
		return err == nil
	})
	validate.RegisterValidation("arn", func(fl validator.FieldLevel) bool {
		return arn.Validate(fl.Field().String(), fl.Param()) == nil
	})
}

// Request is the validated set of properties a Create needs.
type Request struct {
	ResourceArn               string `json:"ResourceArn" validate:"required,arn=rds"`
	SecretArn                 string `json:"SecretArn" validate:"required,arn=secretsmanager"`
	DatabaseName              string `json:"DatabaseName" validate:"required"`
	DatabasePassword          string `json:"DatabasePassword" validate:"required_without=DatabasePasswordSecretArn"`
	DatabasePasswordSecretArn string `json:"DatabasePasswordSecretArn" validate:"omitempty,arn=secretsmanager"`
	TableName                 string `json:"TableName" validate:"required,pgtable"`
	SchemaName                string `json:"SchemaName" validate:"required,pgident"`
	UserName                  string `json:"UserName" validate:"required,pgident"`
	MetadataField             string `json:"MetadataField" validate:"required,pgident"`
	PrimaryKeyField           string `json:"PrimaryKeyField" validate:"required,pgident"`
	TextField                 string `json:"TextField" validate:"required,pgident"`
	VectorField               string `json:"VectorField" validate:"required,pgident"`
	Dimension                 int    `json:"Dimension" validate:"min=1,max=2000"`
	EmbeddingModelID          string `json:"EmbeddingModelId"`
}

// InputError reports a missing or malformed resource property.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("missing required property %s", e.Field)
	}
	return fmt.Sprintf("invalid property %s: %s", e.Field, e.Reason)
}

// Parse builds a Request from CloudFormation resource properties. The first
// missing property, in template order, is reported as an *InputError.
func Parse(properties map[string]any) (*Request, error) {
	req := &Request{}

	dimension, hasDimension, err := getIntProperty(properties, FieldDimension)
	if err != nil {
		return nil, &InputError{Field: FieldDimension, Reason: err.Error()}
	}
	if req.EmbeddingModelID, err = getOptionalStringProperty(properties, FieldEmbeddingModelID); err != nil {
		return nil, err
	}
	if !hasDimension {
		if req.EmbeddingModelID == "" {
			return nil, &InputError{Field: FieldDimension}
		}
		inferred, ok := embedding.Dimension(req.EmbeddingModelID)
		if !ok {
			return nil, &InputError{
				Field:  FieldEmbeddingModelID,
				Reason: fmt.Sprintf("unknown embedding model %q, set %s explicitly", req.EmbeddingModelID, FieldDimension),
			}
		}
		dimension = inferred
	}
	req.Dimension = dimension

	if req.ResourceArn, err = getStringProperty(properties, FieldResourceArn); err != nil {
		return nil, err
	}
	if req.SecretArn, err = getStringProperty(properties, FieldSecretArn); err != nil {
		return nil, err
	}
	if req.DatabaseName, err = getStringProperty(properties, FieldDatabaseName); err != nil {
		return nil, err
	}
	if req.DatabasePasswordSecretArn, err = getOptionalStringProperty(properties, FieldDatabasePasswordSecretArn); err != nil {
		return nil, err
	}
	if req.DatabasePasswordSecretArn == "" {
		if req.DatabasePassword, err = getStringProperty(properties, FieldDatabasePassword); err != nil {
			return nil, err
		}
	} else if req.DatabasePassword, err = getOptionalStringProperty(properties, FieldDatabasePassword); err != nil {
		return nil, err
	}
	if req.TableName, err = getStringProperty(properties, FieldTableName); err != nil {
		return nil, err
	}
	if req.SchemaName, err = getStringProperty(properties, FieldSchemaName); err != nil {
		return nil, err
	}
	if req.UserName, err = getStringProperty(properties, FieldUserName); err != nil {
		return nil, err
	}
	if req.MetadataField, err = getStringProperty(properties, FieldMetadataField); err != nil {
		return nil, err
	}
	if req.PrimaryKeyField, err = getStringProperty(properties, FieldPrimaryKeyField); err != nil {
		return nil, err
	}
	if req.TextField, err = getStringProperty(properties, FieldTextField); err != nil {
		return nil, err
	}
	if req.VectorField, err = getStringProperty(properties, FieldVectorField); err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks the formats of all fields.
func (r *Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return toInputError(err)
	}
	return r.CheckTableSchema()
}

// CheckTableSchema rejects a schema-qualified TableName that names a schema
// other than SchemaName.
func (r *Request) CheckTableSchema() error {
	schema, _, err := SplitTableName(r.TableName)
	if err != nil || schema == "" || schema == strings.ToLower(r.SchemaName) {
		return nil
	}
	return &InputError{
		Field:  FieldTableName,
		Reason: fmt.Sprintf("schema %q does not match %s %q", schema, FieldSchemaName, r.SchemaName),
	}
}

// Target is where the provisioning statements run.
func (r *Request) Target() dataapi.Target {
	return dataapi.Target{
		ResourceArn: r.ResourceArn,
		Database:    r.DatabaseName,
		SecretArn:   r.SecretArn,
	}
}

// QualifiedTable returns the schema and table the vector table lives in.
// Validate guarantees a schema-qualified TableName names SchemaName.
func (r *Request) QualifiedTable() (string, string) {
	schema, table, err := SplitTableName(r.TableName)
	if err != nil || schema == "" {
		return strings.ToLower(r.SchemaName), strings.ToLower(r.TableName)
	}
	return schema, table
}

// PhysicalID is the stable identifier reported back for the resource.
func (r *Request) PhysicalID() string {
	schema, table := r.QualifiedTable()
	return arn.PhysicalID(r.ResourceArn, r.DatabaseName, schema, table)
}

func (r *Request) LogValue() slog.Value {
	schema, table := r.QualifiedTable()
	return slog.GroupValue(
		slog.String("resource_arn", r.ResourceArn),
		slog.String("database", r.DatabaseName),
		slog.String("schema", schema),
		slog.String("table", table),
		slog.String("user", r.UserName),
		slog.Int("dimension", r.Dimension),
		slog.Bool("password_from_secret", r.DatabasePasswordSecretArn != ""),
	)
}

// IsIdentifier reports whether s can be used as an unquoted SQL identifier.
func IsIdentifier(s string) bool {
	return identifierRegex.MatchString(s)
}

// SplitTableName accepts "table" or "schema.table" and returns the lower
// cased parts; schema is empty for an unqualified name.
func SplitTableName(name string) (schema, table string, err error) {
	parts := strings.Split(name, ".")
	switch len(parts) {
	case 1:
		table = parts[0]
	case 2:
		schema, table = parts[0], parts[1]
		if !IsIdentifier(schema) {
			return "", "", fmt.Errorf("invalid schema %q in table name %q", schema, name)
		}
	default:
		return "", "", fmt.Errorf("table name %q has too many parts", name)
	}
	if !IsIdentifier(table) {
		return "", "", fmt.Errorf("invalid table name %q", name)
	}
	return strings.ToLower(schema), strings.ToLower(table), nil
}

// Changed returns, sorted, the properties whose values differ between old
// and updated. ServiceToken is ignored.
func Changed(old, updated map[string]any) []string {
	keys := make(map[string]struct{}, len(old)+len(updated))
	for k := range old {
		keys[k] = struct{}{}
	}
	for k := range updated {
		keys[k] = struct{}{}
	}
	delete(keys, ServiceToken)

	var changed []string
	for k := range keys {
		valOld, inOld := old[k]
		valNew, inNew := updated[k]
		if inOld != inNew || !reflect.DeepEqual(valOld, valNew) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

func toInputError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validation error: %w", err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required", "required_without":
		return &InputError{Field: fe.Field()}
	case "pgident":
		return &InputError{Field: fe.Field(), Reason: "must be a SQL identifier of letters, digits and underscores, not starting with a digit, at most 63 characters"}
	case "pgtable":
		return &InputError{Field: fe.Field(), Reason: "must be table or schema.table made of SQL identifiers"}
	case "arn":
		return &InputError{Field: fe.Field(), Reason: fmt.Sprintf("must be a %s ARN", fe.Param())}
	case "min", "max":
		return &InputError{Field: fe.Field(), Reason: fmt.Sprintf("must be between %d and %d", MinDimension, MaxDimension)}
	default:
		return &InputError{Field: fe.Field(), Reason: fmt.Sprintf("failed %s validation", fe.Tag())}
	}
}

// getStringProperty extracts a required, non-empty string from properties.
func getStringProperty(properties map[string]any, key string) (string, error) {
	val, ok := properties[key]
	if !ok || val == nil {
		return "", &InputError{Field: key}
	}
	strVal, ok := val.(string)
	if !ok {
		return "", &InputError{Field: key, Reason: "must be a string"}
	}
	if strings.TrimSpace(strVal) == "" {
		return "", &InputError{Field: key}
	}
	return strVal, nil
}

func getOptionalStringProperty(properties map[string]any, key string) (string, error) {
	if val, ok := properties[key]; !ok || val == nil {
		return "", nil
	}
	strVal, err := getStringProperty(properties, key)
	if err != nil {
		var inputErr *InputError
		if errors.As(err, &inputErr) && inputErr.Reason == "" {
			return "", nil
		}
		return "", err
	}
	return strVal, nil
}

// getIntProperty extracts an integer. CloudFormation passes every scalar as
// a string; direct invocations may pass JSON numbers.
func getIntProperty(properties map[string]any, key string) (int, bool, error) {
	val, ok := properties[key]
	if !ok || val == nil {
		return 0, false, nil
	}

	switch v := val.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, true, fmt.Errorf("%q is not an integer", v)
		}
		return n, true, nil
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			return 0, true, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), true, nil
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case json.Number:
		n, err := strconv.Atoi(v.String())
		if err != nil {
			return 0, true, fmt.Errorf("%q is not an integer", v.String())
		}
		return n, true, nil
	default:
		return 0, true, fmt.Errorf("unsupported type %T", val)
	}
}
