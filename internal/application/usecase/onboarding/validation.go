package onboarding

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/khoahotran/fittrack/internal/domain/onboarding"
	"github.com/khoahotran/fittrack/internal/domain/profile"
)

const (
	MinAge            = 16
	MaxAge            = 100
	MinPasswordLength = 6
	MaxHeightInches   = 11
)

var ErrValidation = errors.New("onboarding validation failed")

type Rule string

const (
	RuleBirthDateIncomplete Rule = "birth-date-incomplete"
	RuleBirthDateRange      Rule = "birth-date-range"
	RuleBirthDateInvalid    Rule = "birth-date-invalid"
	RuleAgeRequirement      Rule = "age-requirement"
	RuleNameRequired        Rule = "name-required"
	RuleCredentialsRequired Rule = "credentials-required"
	RulePasswordLength      Rule = "password-length"
	RuleHeight              Rule = "height"
	RuleWeight              Rule = "weight"
)

// ValidationError carries the single user-facing message for the first failed rule.
type ValidationError struct {
	Rule        Rule
	Title       string
	Description string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Description)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(rule Rule, title, description string) *ValidationError {
	return &ValidationError{Rule: rule, Title: title, Description: description}
}

// Validated is the typed projection of a form that passed every rule.
type Validated struct {
	Email        string
	Password     string
	Name         string
	DateOfBirth  time.Time
	Age          int
	HeightFeet   int
	HeightInches int
	WeightPounds float64
}

// Validate runs the completion checks in order and stops at the first failure.
func Validate(form onboarding.FormData, now time.Time) (*Validated, error) {
	dob, age, err := validateBirthDate(form, now)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(form.Name)
	if name == "" {
		return nil, invalid(RuleNameRequired, "Name required", "Please enter your name.")
	}

	email := strings.TrimSpace(form.Email)
	if email == "" || form.Password == "" {
		return nil, invalid(RuleCredentialsRequired, "Missing credentials", "Email and password are required.")
	}

	if utf8.RuneCountInString(form.Password) < MinPasswordLength {
		return nil, invalid(RulePasswordLength, "Password too short",
			fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength))
	}

	feet, inches, err := ParseHeight(form.HeightFeet, form.HeightInches)
	if err != nil {
		return nil, err
	}

	weight, err := ParseWeight(form.WeightPounds)
	if err != nil {
		return nil, err
	}

	return &Validated{
		Email:        email,
		Password:     form.Password,
		Name:         name,
		DateOfBirth:  dob,
		Age:          age,
		HeightFeet:   feet,
		HeightInches: inches,
		WeightPounds: weight,
	}, nil
}

func validateBirthDate(form onboarding.FormData, now time.Time) (time.Time, int, error) {
	rawMonth := strings.TrimSpace(form.BirthMonth)
	rawDay := strings.TrimSpace(form.BirthDay)
	rawYear := strings.TrimSpace(form.BirthYear)

	var missing []string
	if rawMonth == "" {
		missing = append(missing, "month")
	}
	if rawDay == "" {
		missing = append(missing, "day")
	}
	if rawYear == "" {
		missing = append(missing, "year")
	}
	if len(missing) > 0 {
		return time.Time{}, 0, invalid(RuleBirthDateIncomplete, "Missing date of birth",
			fmt.Sprintf("Please enter your birth %s.", joinWords(missing)))
	}

	month, errMonth := strconv.Atoi(rawMonth)
	day, errDay := strconv.Atoi(rawDay)
	year, errYear := strconv.Atoi(rawYear)
	if errMonth != nil || errDay != nil || errYear != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, 0, invalid(RuleBirthDateRange, "Invalid date of birth",
			"Month must be between 1 and 12 and day between 1 and 31.")
	}

	if year < now.Year()-MaxAge || year > now.Year()-MinAge {
		return time.Time{}, 0, ageRequirementError()
	}

	dob := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if dob.Year() != year || int(dob.Month()) != month || dob.Day() != day {
		return time.Time{}, 0, invalid(RuleBirthDateInvalid, "Invalid date",
			"The date of birth you entered does not exist.")
	}

	age := profile.AgeOn(dob, now)
	if age < MinAge || age > MaxAge {
		return time.Time{}, 0, ageRequirementError()
	}

	return dob, age, nil
}

func ageRequirementError() *ValidationError {
	return invalid(RuleAgeRequirement, "Age requirement",
		fmt.Sprintf("You must be between %d and %d years old to sign up.", MinAge, MaxAge))
}

// ParseHeight accepts whole non-negative feet and inches in [0, 11].
func ParseHeight(rawFeet, rawInches string) (int, int, error) {
	feet, errFeet := strconv.Atoi(strings.TrimSpace(rawFeet))
	inches, errInches := strconv.Atoi(strings.TrimSpace(rawInches))
	if errFeet != nil || errInches != nil || feet < 0 || inches < 0 || inches > MaxHeightInches {
		return 0, 0, invalid(RuleHeight, "Invalid height",
			"Height must be whole feet and inches, with inches between 0 and 11.")
	}
	return feet, inches, nil
}

// ParseWeight accepts a finite positive number of pounds.
func ParseWeight(raw string) (float64, error) {
	weight, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		return 0, invalid(RuleWeight, "Invalid weight", "Weight must be a positive number.")
	}
	return weight, nil
}

func joinWords(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	case 2:
		return words[0] + " and " + words[1]
	}
	return strings.Join(words[:len(words)-1], ", ") + " and " + words[len(words)-1]
}
