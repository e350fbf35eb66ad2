// Package validate checks search criteria before any provider is called.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/you/go-flight-aggregator/internal/providers"
)

const (
	MaxPassengers  = 9
	MinMaxResults  = 10
	MaxMaxResults  = 100
	bookingHorizon = 365 * 24 * time.Hour
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rejected field of a search request.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid search: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// IATA reports whether code is exactly three ASCII letters.
func IATA(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

type criteriaInput struct {
	Origin      string `json:"origin" validate:"required,iata"`
	Destination string `json:"destination" validate:"required,iata,nefield=Origin"`
	Adults      int    `json:"adults" validate:"min=1,max=9"`
	Cabin       string `json:"cabin" validate:"oneof=ECONOMY PREMIUM_ECONOMY BUSINESS FIRST"`
	Currency    string `json:"currency" validate:"len=3,alpha"`
	MaxResults  int    `json:"max_results" validate:"min=10,max=100"`
}

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = val.RegisterValidation("iata", func(fl validator.FieldLevel) bool {
		return IATA(fl.Field().String())
	})
	return val
}

// Criteria validates c against the calendar day of today. It returns nil
// or a *ValidationError.
func Criteria(c providers.SearchCriteria, today time.Time) error {
	verr := &ValidationError{}

	err := v.Struct(criteriaInput{
		Origin:      c.Origin,
		Destination: c.Destination,
		Adults:      c.Adults,
		Cabin:       string(c.Cabin),
		Currency:    c.Currency,
		MaxResults:  c.MaxResults,
	})
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			verr.add(fe.Field(), message(fe))
		}
	} else if err != nil {
		return err
	}

	day := truncateDay(today)
	dep := truncateDay(c.DepartureDate)
	switch {
	case c.DepartureDate.IsZero():
		verr.add("departure_date", "departure date is required")
	case dep.Before(day):
		verr.add("departure_date", "date cannot be in the past")
	case dep.After(day.Add(bookingHorizon)):
		verr.add("departure_date", "date cannot be more than 1 year in the future")
	}
	if c.ReturnDate != nil && !c.DepartureDate.IsZero() {
		if !truncateDay(*c.ReturnDate).After(dep) {
			verr.add("return_date", "return date must be after departure date")
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "airport code cannot be empty"
	case "iata":
		if len(fe.Value().(string)) != 3 {
			return "airport code must be 3 characters"
		}
		return "airport code must contain only letters"
	case "nefield":
		return "destination must differ from origin"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "len", "alpha":
		return "must be a 3-letter currency code"
	}

	switch fe.Field() {
	case "adults":
		if fe.Tag() == "min" {
			return "must have at least 1 passenger"
		}
		return fmt.Sprintf("maximum %d passengers allowed", MaxPassengers)
	case "max_results":
		return fmt.Sprintf("must be between %d and %d", MinMaxResults, MaxMaxResults)
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}
