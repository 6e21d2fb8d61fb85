package survey

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/ccc-church/evaluation-api/pkg/errors"
)

// Section names accepted by the per-section validation endpoint.
const (
	SectionNameA = "A"
	SectionNameB = "B"
	SectionNameC = "C"
	SectionNameD = "D"
	SectionNameE = "E"
)

// NewValidator returns a validator configured to report fields by
// their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateForm checks a full five-section form and returns one entry
// per failing field, in field order.
func ValidateForm(v *validator.Validate, form *Form) []appErrors.FieldError {
	return fieldErrors(v.Struct(form))
}

// ValidateSection decodes and checks a single section payload. Unknown
// section names and malformed JSON are request errors, not validation
// findings.
func ValidateSection(v *validator.Validate, name string, raw []byte) ([]appErrors.FieldError, error) {
	var target interface{}
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case SectionNameA:
		target = &SectionA{}
	case SectionNameB:
		target = &SectionB{}
	case SectionNameC:
		target = &SectionC{}
	case SectionNameD:
		target = &SectionD{}
	case SectionNameE:
		target = &SectionE{}
	default:
		return nil, appErrors.Clone(appErrors.ErrBadRequest, fmt.Sprintf("unknown section %q", name))
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "invalid JSON payload")
	}
	return fieldErrors(v.Struct(target)), nil
}

func fieldErrors(err error) []appErrors.FieldError {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []appErrors.FieldError{{Field: "payload", Message: "invalid payload"}}
	}
	out := make([]appErrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, appErrors.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "oneof":
		return "must be one of: " + strings.Join(oneofOptions(fe.Param()), ", ")
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("select at least %s option(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s character(s)", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("select at most %s option(s)", fe.Param())
		}
		return fmt.Sprintf("must be at most %s character(s)", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// oneofOptions splits a oneof parameter list, honouring single-quoted
// values that contain spaces.
func oneofOptions(param string) []string {
	var opts []string
	fields := strings.Fields(param)
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if strings.HasPrefix(f, "'") && !strings.HasSuffix(f, "'") {
			joined := f
			for i+1 < len(fields) {
				i++
				joined += " " + fields[i]
				if strings.HasSuffix(fields[i], "'") {
					break
				}
			}
			f = joined
		}
		opts = append(opts, strings.Trim(f, "'"))
	}
	sort.Strings(opts)
	return opts
}
