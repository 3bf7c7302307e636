package address

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/greencart/internal/domain"
)

var (
	zipPattern   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 -]{2,9}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{5,18}[0-9]$`)
)

// BasicValidator performs structural validation without external API calls:
// name, phone, street, city and zip are required and phone and zip must
// look like a phone number and postal code.
type BasicValidator struct {
	validate *validator.Validate
}

// NewBasicValidator creates a new basic address validator.
func NewBasicValidator() Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "zip", zipPattern)
	mustRegister(v, "phone", phonePattern)
	return &BasicValidator{validate: v}
}

// mustRegister adds a tag that matches string fields against pattern.
func mustRegister(v *validator.Validate, tag string, pattern *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("address: register %q validation: %v", tag, err))
	}
}

// Validate trims every field and then checks the struct tags.
func (v *BasicValidator) Validate(ctx context.Context, addr domain.ShippingAddress) (*ValidationResult, error) {
	normalized := Normalize(addr)
	result := &ValidationResult{IsValid: true, NormalizedAddress: &normalized}

	err := v.validate.StructCtx(ctx, normalized)
	if err == nil {
		return result, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	result.IsValid = false
	for _, fe := range verrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return result, nil
}

// Normalize trims surrounding whitespace from every field.
func Normalize(addr domain.ShippingAddress) domain.ShippingAddress {
	return domain.ShippingAddress{
		Name:    strings.TrimSpace(addr.Name),
		Phone:   strings.TrimSpace(addr.Phone),
		Street:  strings.TrimSpace(addr.Street),
		City:    strings.TrimSpace(addr.City),
		State:   strings.TrimSpace(addr.State),
		Zip:     strings.ToUpper(strings.TrimSpace(addr.Zip)),
		Country: strings.TrimSpace(addr.Country),
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "zip":
		return "is not a valid postal code"
	case "phone":
		return "is not a valid phone number"
	}
	return "is invalid"
}
