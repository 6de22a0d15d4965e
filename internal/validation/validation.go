package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// report fields under their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidateFields checks free-form values against per-field validator tags.
// Fields without a rule are ignored. The returned map is keyed by field name.
func ValidateFields(values map[string]string, rules map[string]string) map[string]string {
	errs := make(map[string]string)
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		err := validate.Var(values[name], rules[name])
		if err == nil {
			continue
		}
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			errs[name] = vErrs[0].Tag()
		} else {
			errs[name] = err.Error()
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func ErrorsToJson(validationErrs error) (string, error) {
	errsMap := make(map[string]string)
	var vErrs validator.ValidationErrors
	if errors.As(validationErrs, &vErrs) {
		for _, fieldErr := range vErrs {
			errsMap[fieldErr.Field()] = fieldErr.Tag()
		}
	} else if validationErrs != nil {
		errsMap["error"] = validationErrs.Error()
	}

	errsJson, err := json.Marshal(errsMap)
	if err != nil {
		return "", err
	}
	return string(errsJson), nil
}
