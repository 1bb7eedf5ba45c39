package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// NotificationDataSchema describes the order snapshot accepted by the job
// workers and the HTTP API.
const NotificationDataSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["orderId", "customerName", "orderTotal", "items"],
  "properties": {
    "orderId":           {"type": "string", "minLength": 1, "pattern": "^[^\\r\\n]+$"},
    "customerName":      {"type": "string", "pattern": "^[^\\r\\n]*$"},
    "customerEmail":     {"type": "string"},
    "customerPhone":     {"type": "string"},
    "orderTotal":        {"type": "number", "minimum": 0},
    "trackingNumber":    {"type": "string"},
    "estimatedDelivery": {"type": "string"},
    "deliveryAddress":   {"type": "string"},
    "courierPartner":    {"type": "string"},
    "deliveryDate":      {"type": "string"},
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["product", "quantity"],
        "properties": {
          "quantity": {"type": "integer", "minimum": 1},
          "product": {
            "type": "object",
            "required": ["name", "price"],
            "properties": {
              "id":    {"type": "string"},
              "name":  {"type": "string", "minLength": 1},
              "price": {"type": "number", "minimum": 0}
            }
          }
        }
      }
    }
  }
}`

// PreferencesSchema requires every flag so a PUT is always a full replace.
const PreferencesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["email", "sms", "orderConfirmation", "shippingUpdates", "deliveryNotifications", "promotionalOffers"],
  "properties": {
    "email":                 {"type": "boolean"},
    "sms":                   {"type": "boolean"},
    "orderConfirmation":     {"type": "boolean"},
    "shippingUpdates":       {"type": "boolean"},
    "deliveryNotifications": {"type": "boolean"},
    "promotionalOffers":     {"type": "boolean"}
  },
  "additionalProperties": false
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

// Summary joins the errors into one line for error details.
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

var (
	schemaMu    sync.Mutex
	schemaCache = map[string]*gojsonschema.Schema{}
)

func compile(schema string) (*gojsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	if s, ok := schemaCache[schema]; ok {
		return s, nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	schemaCache[schema] = s
	return s, nil
}

// ValidateJSON validates a raw JSON document against schema.
func ValidateJSON(schema string, document []byte) (*ValidationResult, error) {
	return validate(schema, gojsonschema.NewBytesLoader(document))
}

// ValidateGo validates an already decoded value (maps, slices, structs).
func ValidateGo(schema string, document interface{}) (*ValidationResult, error) {
	return validate(schema, gojsonschema.NewGoLoader(document))
}

func validate(schema string, loader gojsonschema.JSONLoader) (*ValidationResult, error) {
	s, err := compile(schema)
	if err != nil {
		return nil, err
	}
	result, err := s.Validate(loader)
	if err != nil {
		return nil, fmt.Errorf("validate document: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	return out, nil
}
