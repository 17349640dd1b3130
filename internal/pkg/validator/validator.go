package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Earn source validation
	validate.RegisterValidation("earn_source", func(fl validator.FieldLevel) bool {
		source := fl.Field().String()
		validSources := []string{"vote_received", "content_posted", "daily_login"}
		for _, s := range validSources {
			if source == s {
				return true
			}
		}
		return false
	})

	// Reward category validation
	validate.RegisterValidation("reward_category", func(fl validator.FieldLevel) bool {
		category := fl.Field().String()
		validCategories := []string{"apparel", "supplements", "gear", "digital", "other", ""}
		for _, c := range validCategories {
			if category == c {
				return true
			}
		}
		return false
	})

	// Claim status validation
	validate.RegisterValidation("claim_status", func(fl validator.FieldLevel) bool {
		status := fl.Field().String()
		validStatuses := []string{"pending", "shipped", "delivered", "cancelled"}
		for _, s := range validStatuses {
			if status == s {
				return true
			}
		}
		return false
	})

	// Leaderboard period validation
	validate.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		period := fl.Field().String()
		validPeriods := []string{"week", "month", "all", ""}
		for _, p := range validPeriods {
			if period == p {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gte":
			errors[field] = "Value must be at least " + err.Param()
		case "lte":
			errors[field] = "Value must be at most " + err.Param()
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "url":
			errors[field] = "Invalid URL format"
		case "uuid":
			errors[field] = "Invalid UUID format"
		case "earn_source":
			errors[field] = "Invalid source. Must be: vote_received, content_posted, or daily_login"
		case "reward_category":
			errors[field] = "Invalid category. Must be: apparel, supplements, gear, digital, or other"
		case "claim_status":
			errors[field] = "Invalid status. Must be: pending, shipped, delivered, or cancelled"
		case "period":
			errors[field] = "Invalid period. Must be: week, month, or all"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
