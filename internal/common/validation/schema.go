package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator checks documents against one compiled JSON schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles schemaMap.
func NewValidator(schemaMap map[string]interface{}) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// TextInputSchema describes {"text": "..."} with length limits counted in
// characters. Extra properties are ignored.
func TextInputSchema(minLength, maxLength int) map[string]interface{} {
	text := map[string]interface{}{
		"type":      "string",
		"minLength": minLength,
	}
	if maxLength > 0 {
		text["maxLength"] = maxLength
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{"text": text},
		"required":   []string{"text"},
	}
}

// NewTextValidator builds a Validator for TextInputSchema.
func NewTextValidator(minLength, maxLength int) (*Validator, error) {
	return NewValidator(TextInputSchema(minLength, maxLength))
}

// ValidateJSON validates a raw JSON document. Malformed JSON yields a single
// INVALID_JSON error.
func (v *Validator) ValidateJSON(body []byte) *ValidationResult {
	return v.validate(gojsonschema.NewBytesLoader(body))
}

// ValidateInput validates an already decoded document such as job variables.
func (v *Validator) ValidateInput(input map[string]interface{}) *ValidationResult {
	if input == nil {
		input = map[string]interface{}{}
	}
	return v.validate(gojsonschema.NewGoLoader(input))
}

func (v *Validator) validate(doc gojsonschema.JSONLoader) *ValidationResult {
	result, err := v.schema.Validate(doc)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    "INVALID_JSON",
			}},
		}
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		field := re.Field()
		if prop, ok := re.Details()["property"].(string); ok && re.Type() == "required" {
			field = prop
		}
		errs = append(errs, ValidationError{
			Field:   field,
			Message: re.Description(),
			Code:    errorCode(re.Type()),
		})
	}
	return &ValidationResult{Valid: result.Valid(), Errors: errs}
}

func errorCode(kind string) string {
	switch kind {
	case "required":
		return "REQUIRED_FIELD_MISSING"
	case "invalid_type":
		return "INVALID_TYPE"
	case "string_gte":
		return "MIN_LENGTH_VIOLATION"
	case "string_lte":
		return "MAX_LENGTH_VIOLATION"
	case "additional_property_not_allowed":
		return "EXTRA_FIELD"
	default:
		return strings.ToUpper(kind)
	}
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// HasCode reports whether any error carries code.
func (vr *ValidationResult) HasCode(code string) bool {
	for _, err := range vr.Errors {
		if err.Code == code {
			return true
		}
	}
	return false
}
