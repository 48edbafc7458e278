package service

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/campushub-api/internal/models"
	appErrors "github.com/noah-isme/campushub-api/pkg/errors"
)

// NewValidator builds a validator aware of the resource rules. Field errors
// are reported under their JSON (or form) names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return ""
	})
	_ = v.RegisterValidation("branch", func(fl validator.FieldLevel) bool {
		return models.IsValidBranch(fl.Field().String())
	})
	_ = v.RegisterValidation("resourcetype", func(fl validator.FieldLevel) bool {
		return models.ResourceType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return isHTTPURL(fl.Field().String())
	})
	return v
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// validationError converts validator output into a 400 carrying one entry
// per offending field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, appErrors.ErrValidation.Message)
	}
	fields := make([]appErrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, appErrors.FieldError{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
			Value:   fe.Value(),
		})
	}
	return appErrors.Validation(appErrors.ErrValidation.Message, fields...)
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", name)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "branch":
		return fmt.Sprintf("%s must be a valid branch code", name)
	case "resourcetype":
		return fmt.Sprintf("%s must be one of: pyq, notes, syllabus, content", name)
	case "httpurl":
		return fmt.Sprintf("%s must be a valid http(s) URL", name)
	case "uuid4", "uuid":
		return fmt.Sprintf("%s must be a valid UUID", name)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", name)
	}
	return fmt.Sprintf("%s is invalid", name)
}
