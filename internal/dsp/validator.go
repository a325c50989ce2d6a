package dsp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dataspace-connector/connector/internal/domain/apperr"
)

const envelopeSchemaURL = "envelope.schema.json"

// Result is the outcome of validating one message.
type Result struct {
	Valid  bool               `json:"valid"`
	Errors []apperr.Violation `json:"errors"`
}

// Err returns a ValidationFailed error for an invalid result, nil otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return apperr.ValidationFailed("invalid message envelope", r.Errors...)
}

// Validator checks inbound messages against the envelope schema. The
// compiled schema is read-only, so a Validator may be shared across
// goroutines.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the envelope schema.
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	c.AssertFormat = true
	if err := c.AddResource(envelopeSchemaURL, strings.NewReader(envelopeSchema)); err != nil {
		return nil, fmt.Errorf("failed to load envelope schema: %w", err)
	}
	schema, err := c.Compile(envelopeSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile envelope schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// MustNewValidator is NewValidator that panics on error.
func MustNewValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks an arbitrary value. Raw JSON ([]byte, json.RawMessage)
// is decoded first; any other value is checked through its JSON encoding.
func (v *Validator) Validate(message interface{}) Result {
	var (
		doc interface{}
		err error
	)
	switch m := message.(type) {
	case []byte:
		doc, err = decodeJSON(m)
	case json.RawMessage:
		doc, err = decodeJSON(m)
	default:
		var b []byte
		b, err = json.Marshal(m)
		if err == nil {
			doc, err = decodeJSON(b)
		}
	}
	if err != nil {
		return Result{
			Valid:  false,
			Errors: []apperr.Violation{{Path: "/", Description: "not a JSON document: " + err.Error()}},
		}
	}
	return v.validateDocument(doc)
}

// ValidateJSON checks a raw JSON document.
func (v *Validator) ValidateJSON(data []byte) Result {
	return v.Validate(data)
}

func (v *Validator) validateDocument(doc interface{}) Result {
	err := v.schema.Validate(doc)
	if err == nil {
		return Result{Valid: true, Errors: []apperr.Violation{}}
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return Result{
			Valid:  false,
			Errors: []apperr.Violation{{Path: "/", Description: err.Error()}},
		}
	}

	var violations []apperr.Violation
	for _, leaf := range leaves(verr) {
		violations = append(violations, v.describe(leaf, doc)...)
	}
	if len(violations) == 0 {
		violations = append(violations, apperr.Violation{Path: "/", Description: verr.Message})
	}
	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].Path != violations[j].Path {
			return violations[i].Path < violations[j].Path
		}
		return violations[i].Description < violations[j].Description
	})
	return Result{Valid: false, Errors: dedupe(violations)}
}

// describe turns a leaf schema error into per-path violations. Object
// keywords on the envelope root are expanded to one entry per property.
func (v *Validator) describe(leaf *jsonschema.ValidationError, doc interface{}) []apperr.Violation {
	root, isObject := doc.(map[string]interface{})
	if leaf.InstanceLocation == "" && isObject {
		switch {
		case strings.HasSuffix(leaf.KeywordLocation, "/required"):
			var out []apperr.Violation
			for _, name := range v.schema.Required {
				if _, ok := root[name]; !ok {
					out = append(out, apperr.Violation{Path: "/" + name, Description: "required"})
				}
			}
			if len(out) > 0 {
				return out
			}
		case strings.HasSuffix(leaf.KeywordLocation, "/additionalProperties"):
			var out []apperr.Violation
			for name := range root {
				if _, known := v.schema.Properties[name]; !known {
					out = append(out, apperr.Violation{Path: "/" + name, Description: "additional property not allowed"})
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	path := leaf.InstanceLocation
	if path == "" {
		path = "/"
	}
	return []apperr.Violation{{Path: path, Description: leaf.Message}}
}

func leaves(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var out []*jsonschema.ValidationError
	for _, c := range err.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

func dedupe(in []apperr.Violation) []apperr.Violation {
	out := make([]apperr.Violation, 0, len(in))
	for i, v := range in {
		if i > 0 && v == in[i-1] {
			continue
		}
		out = append(out, v)
	}
	return out
}

func decodeJSON(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return doc, nil
}
