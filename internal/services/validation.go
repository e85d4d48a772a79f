package services

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"hospital-admin-server/internal/models"
)

// BloodGroups accepted by patient registration.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// Genders accepted by patient registration.
var Genders = []string{"Male", "Female", "Other"}

var (
	phoneSeparators = regexp.MustCompile(`[\s\-()]`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

var validate = NewValidator()

// NewValidator returns a validator that reports json field names and knows
// the ymd, hhmm, phone, bloodgroup and mail tags.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
		return IsDate(fl.Field().String())
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return IsTime(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("mail", func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("bloodgroup", func(fl validator.FieldLevel) bool {
		return IsBloodGroup(fl.Field().String())
	})
	return v
}

// IsDate reports whether s is a calendar date in YYYY-MM-DD form.
func IsDate(s string) bool {
	_, err := time.Parse(models.DateLayout, s)
	return err == nil
}

// IsTime reports whether s is a HH:MM time of day.
func IsTime(s string) bool {
	_, err := time.Parse(models.TimeLayout, s)
	return err == nil
}

// IsPhone reports whether s has 10 to 15 digits once spaces, dashes and
// parentheses are removed.
func IsPhone(s string) bool {
	cleaned := phoneSeparators.ReplaceAllString(s, "")
	if len(cleaned) < 10 || len(cleaned) > 15 {
		return false
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

func IsBloodGroup(s string) bool {
	for _, g := range BloodGroups {
		if g == s {
			return true
		}
	}
	return false
}

func check(input interface{}) error {
	if err := validate.Struct(input); err != nil {
		return fromValidator(err)
	}
	return nil
}

// Validate checks input against its validate tags and returns a
// *ValidationError for the first failing field.
func Validate(input interface{}) error {
	return check(input)
}

// trimmed returns a trimmed copy of *p, or nil. The caller's string is left alone.
func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	return &s
}
