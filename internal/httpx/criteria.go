package httpx

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/you/go-flight-aggregator/internal/providers"
	"github.com/you/go-flight-aggregator/internal/validate"
)

const dateLayout = "2006-01-02"

// ParseCriteria reads search criteria from query parameters. Malformed
// values come back as a *validate.ValidationError so callers answer them
// the same way as rule violations.
func ParseCriteria(q url.Values) (providers.SearchCriteria, error) {
	verr := &validate.ValidationError{}
	bad := func(field, msg string) {
		verr.Fields = append(verr.Fields, validate.FieldError{Field: field, Message: msg})
	}

	c := providers.SearchCriteria{
		Origin:      q.Get("origin"),
		Destination: q.Get("destination"),
		Currency:    q.Get("currency"),
	}

	date := q.Get("date")
	if date == "" {
		date = q.Get("departure_date")
	}
	if date == "" {
		bad("departure_date", "departure date is required")
	} else if d, err := time.Parse(dateLayout, date); err != nil {
		bad("departure_date", "must be YYYY-MM-DD")
	} else {
		c.DepartureDate = d
	}

	if s := q.Get("return_date"); s != "" {
		if d, err := time.Parse(dateLayout, s); err != nil {
			bad("return_date", "must be YYYY-MM-DD")
		} else {
			c.ReturnDate = &d
		}
	}

	intParam := func(name string, dst *int) {
		s := q.Get(name)
		if s == "" {
			return
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			bad(name, "must be a whole number")
			return
		}
		*dst = n
	}
	intParam("adults", &c.Adults)
	intParam("max_results", &c.MaxResults)

	if s := q.Get("cabin"); s != "" {
		cabin, err := providers.ParseCabinClass(s)
		if err != nil {
			bad("cabin", "must be one of ECONOMY, PREMIUM_ECONOMY, BUSINESS, FIRST")
		} else {
			c.Cabin = cabin
		}
	}

	if s := q.Get("non_stop"); s != "" {
		b, err := strconv.ParseBool(strings.ToLower(s))
		if err != nil {
			bad("non_stop", "must be true or false")
		} else {
			c.NonStop = b
		}
	}

	if len(verr.Fields) > 0 {
		return c, verr
	}
	return c.Normalize(), nil
}
