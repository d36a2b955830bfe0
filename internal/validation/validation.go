// Package validation checks request structs and contact details, reporting
// failures as *entity.ValidationError of kind entity.ErrInvalidRequest.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"

	"github.com/egannguyen/jewellery-storefront/internal/entity"
)

// DefaultRegion is used for phone numbers written without a country code.
const DefaultRegion = "GB"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate: %w", err)
	}

	fields := make([]string, 0, len(verrs))
	problems := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, dup := problems[fe.Field()]; dup {
			continue
		}
		fields = append(fields, fe.Field())
		problems[fe.Field()] = describe(fe)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f+" "+problems[f])
	}
	return entity.NewValidationError(entity.ErrInvalidRequest, fields[0], "%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be an email address"
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "gt":
		return "must be > " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}

// PhoneE164 parses a phone number, assuming region when it has no country
// code, and returns it in E.164 form.
func PhoneE164(raw, region string) (string, error) {
	p, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return "", entity.NewValidationError(entity.ErrInvalidRequest, "phone", "%q is not a phone number", raw)
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", entity.NewValidationError(entity.ErrInvalidRequest, "phone", "%q is not a valid number", raw)
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}
