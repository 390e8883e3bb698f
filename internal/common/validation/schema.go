package validation

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	apperrors "careplus/internal/common/errors"
	"careplus/pkg/registry"

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

// Summary joins every error into one line, sorted for stable output.
func (r *ValidationResult) Summary() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

// Validator checks request bodies against the schema registry. Compiled
// schemas are cached per id.
type Validator struct {
	registry *registry.SchemaRegistry

	mu    sync.RWMutex
	cache map[string]*gojsonschema.Schema
}

func NewValidator(reg *registry.SchemaRegistry) *Validator {
	return &Validator{
		registry: reg,
		cache:    make(map[string]*gojsonschema.Schema),
	}
}

// NewDefaultValidator uses the embedded registry.
func NewDefaultValidator() (*Validator, error) {
	reg, err := registry.Default()
	if err != nil {
		return nil, err
	}
	return NewValidator(reg), nil
}

func (v *Validator) schema(id string) (*gojsonschema.Schema, error) {
	v.mu.RLock()
	if s, ok := v.cache[id]; ok {
		v.mu.RUnlock()
		return s, nil
	}
	v.mu.RUnlock()

	def, err := v.registry.Get(id)
	if err != nil {
		return nil, err
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def.Schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", id, err)
	}

	v.mu.Lock()
	v.cache[id] = compiled
	v.mu.Unlock()
	return compiled, nil
}

// ValidateJSON checks body against the schema registered under id.
func (v *Validator) ValidateJSON(id string, body []byte) (*ValidationResult, error) {
	s, err := v.schema(id)
	if err != nil {
		return nil, err
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: "request body is required",
			Code:    "required",
		}}}, nil
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		// Not JSON at all.
		return &ValidationResult{Errors: []ValidationError{{
			Field:   "(root)",
			Message: "request body must be valid JSON",
			Code:    "invalid_json",
		}}}, nil
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	return out, nil
}

// Validate is ValidateJSON folded into a VALIDATION_FAILED error.
func (v *Validator) Validate(id string, body []byte) error {
	res, err := v.ValidateJSON(id, body)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !res.Valid {
		return apperrors.NewValidationFailedError(res.Summary()).
			WithMetadata("errors", res.Errors)
	}
	return nil
}

// CheckRegistry reports duplicate ids, missing API schemas and schemas that
// do not compile.
func CheckRegistry(reg *registry.SchemaRegistry) []string {
	var problems []string
	seen := map[string]bool{}
	for _, s := range reg.Schemas {
		if s.ID == "" {
			problems = append(problems, "schema without id")
			continue
		}
		if seen[s.ID] {
			problems = append(problems, fmt.Sprintf("duplicate id %s", s.ID))
		}
		seen[s.ID] = true
	}

	for _, id := range []string{
		registry.PatientCreate,
		registry.ReadingCreate,
		registry.HeartRateCreate,
		registry.BloodPressureCreate,
		registry.MedicationCreate,
	} {
		if !seen[id] {
			problems = append(problems, fmt.Sprintf("missing schema %s", id))
		}
	}

	v := NewValidator(reg)
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, err := v.schema(id); err != nil {
			problems = append(problems, err.Error())
		}
	}
	return problems
}
