// Package schema turns raw upstream payloads into typed values. It tells a
// structured API error envelope apart from a malformed payload and from a
// well formed success payload.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Validator decodes and validates payloads against struct shapes declared
// with `validate` tags.
type Validator struct {
	logger   *zap.Logger
	validate *validator.Validate
}

// New builds a Validator. A nil logger discards validation logs.
func New(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{logger: logger, validate: v}
}

// Decode fills out (a pointer to a struct) from body.
//
// An error envelope yields *ApiError even when the body would also satisfy
// the success shape. Any decode or validation failure yields
// *ValidationError.
func (v *Validator) Decode(body []byte, out any) error {
	if apiErr, ok := parseEnvelope(body); ok {
		return apiErr
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(out); err != nil {
		return v.fail(out, []Issue{decodeIssue(err)}, err)
	}

	if err := v.validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return v.fail(out, []Issue{{Path: "$", Tag: "invalid", Param: err.Error()}}, err)
		}
		issues := make([]Issue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, Issue{Path: fieldPath(fe.Namespace()), Tag: fe.Tag(), Param: fe.Param()})
		}
		return v.fail(out, issues, err)
	}
	return nil
}

// Decode is the typed form of (*Validator).Decode.
func Decode[T any](v *Validator, body []byte) (T, error) {
	var out T
	err := v.Decode(body, &out)
	return out, err
}

func (v *Validator) fail(out any, issues []Issue, cause error) error {
	verr := &ValidationError{Issues: issues, err: cause}
	v.logger.Warn("payload failed validation",
		zap.String("shape", reflect.TypeOf(out).String()),
		zap.String("issues", verr.Detail()),
		zap.Int("issue_count", len(issues)))
	return verr
}

// parseEnvelope matches {"status":"error","message":string,"code"?:number}.
func parseEnvelope(body []byte) (*ApiError, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, false
	}
	var status string
	if err := json.Unmarshal(raw["status"], &status); err != nil || status != "error" {
		return nil, false
	}
	var msg string
	if err := json.Unmarshal(raw["message"], &msg); err != nil || isNull(raw["message"]) {
		return nil, false
	}
	apiErr := &ApiError{RawMessage: msg}
	if rc, ok := raw["code"]; ok {
		var code float64
		if err := json.Unmarshal(rc, &code); err != nil || isNull(rc) {
			return nil, false
		}
		apiErr.Code = int(code)
	}
	return apiErr, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeIssue(err error) Issue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		path := typeErr.Field
		if path == "" {
			path = "$"
		}
		return Issue{Path: path, Tag: "type", Param: typeErr.Type.String()}
	}
	var synErr *json.SyntaxError
	if errors.As(err, &synErr) {
		return Issue{Path: "$", Tag: "syntax", Param: synErr.Error()}
	}
	return Issue{Path: "$", Tag: "decode", Param: err.Error()}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
