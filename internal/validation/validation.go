// Package validation checks request payloads with struct tags.
//
// Besides the stock validator/v10 rules it registers "mobile" (ten ASCII
// digits) and "otp" (six ASCII digits). Failures wrap careauth.ErrValidation
// and name the first offending field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/techcare/careauth"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
			return careauth.ValidMobile(fl.Field().String())
		})
		_ = v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
			return careauth.ValidOTPCode(fl.Field().String())
		})
		instance = v
	})
	return instance
}

// Struct validates s and returns nil or an error wrapping careauth.ErrValidation.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s", careauth.ErrValidation, describe(verrs[0]))
	}
	return fmt.Errorf("%w: %v", careauth.ErrValidation, err)
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), rootName(fe))
	if field == "" {
		field = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "mobile":
		return fmt.Sprintf("%q must be a 10 digit mobile number", field)
	case "otp":
		return fmt.Sprintf("%q must be a 6 digit code", field)
	case "email":
		return fmt.Sprintf("%q must be a valid email", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%q length must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%q length must be less than or equal to %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%q must be less than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%q failed %s validation", field, fe.Tag())
	}
}

// rootName returns the "Type." prefix validator puts on namespaces.
func rootName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[:i+1]
	}
	return ""
}
