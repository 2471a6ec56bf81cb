package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// IntentDecisionSchema describes the classifier reply. A clarification
// request must carry a non-empty message.
const IntentDecisionSchema = `{
  "type": "object",
  "required": ["needs_deals", "needs_work_orders", "requires_clarification", "analysis_plan"],
  "properties": {
    "needs_deals": {"type": "boolean"},
    "needs_work_orders": {"type": "boolean"},
    "requires_clarification": {"type": "boolean"},
    "clarification_message": {"type": ["string", "null"]},
    "analysis_plan": {"type": "string"}
  },
  "anyOf": [
    {"properties": {"requires_clarification": {"enum": [false]}}},
    {
      "required": ["clarification_message"],
      "properties": {"clarification_message": {"type": "string", "minLength": 1}}
    }
  ]
}`

// QueryRequestSchema describes the inbound query payload.
const QueryRequestSchema = `{
  "type": "object",
  "required": ["query", "session_id"],
  "properties": {
    "query": {"type": "string", "minLength": 1},
    "session_id": {"type": "string", "minLength": 1, "maxLength": 256}
  }
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins the errors into one line.
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// Validator checks documents against one compiled schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles a JSON schema document.
func NewValidator(schemaJSON string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// MustValidator is NewValidator for schemas known at compile time.
func MustValidator(schemaJSON string) *Validator {
	v, err := NewValidator(schemaJSON)
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateBytes validates a raw JSON document. Malformed JSON is an error.
func (v *Validator) ValidateBytes(doc []byte) (*ValidationResult, error) {
	if !json.Valid(doc) {
		return nil, fmt.Errorf("document is not valid JSON")
	}
	return v.validate(gojsonschema.NewBytesLoader(doc))
}

// ValidateInput validates an already decoded document.
func (v *Validator) ValidateInput(input interface{}) (*ValidationResult, error) {
	return v.validate(gojsonschema.NewGoLoader(input))
}

func (v *Validator) validate(loader gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := v.schema.Validate(loader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}
