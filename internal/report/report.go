// Package report renders offer lists for people: the best-deals cut, the
// CSV download and the plain-text table used by the CLI.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/you/go-flight-aggregator/internal/format"
	"github.com/you/go-flight-aggregator/internal/providers"
)

// Columns is the CSV header, one column per displayed offer field.
var Columns = []string{
	"id", "source", "airline", "airline_code", "flight_number", "origin", "destination",
	"departure", "arrival", "duration", "duration_min", "stops", "cabin_class",
	"price", "currency", "seats_available", "booking_link",
}

// Cheapest returns up to n priced offers, cheapest first. The input is
// left untouched and ties keep their input order.
func Cheapest(offers []providers.FlightOffer, n int) []providers.FlightOffer {
	priced := make([]providers.FlightOffer, 0, len(offers))
	for _, o := range offers {
		if o.Price != nil {
			priced = append(priced, o)
		}
	}
	slices.SortStableFunc(priced, func(a, b providers.FlightOffer) int {
		switch {
		case *a.Price < *b.Price:
			return -1
		case *a.Price > *b.Price:
			return 1
		}
		return 0
	})
	if n >= 0 && len(priced) > n {
		priced = priced[:n]
	}
	return priced
}

func price(o providers.FlightOffer) string {
	if o.Price == nil {
		return ""
	}
	return strconv.FormatFloat(*o.Price, 'f', 2, 64)
}

func seats(o providers.FlightOffer) string {
	if o.SeatsAvailable == nil {
		return "N/A"
	}
	return strconv.Itoa(*o.SeatsAvailable)
}

func when(o providers.FlightOffer, departure bool) string {
	t := o.ArriveAt
	if departure {
		t = o.DepartAt
	}
	if t.IsZero() {
		return ""
	}
	return t.Format(format.DisplayLayout)
}

// minutes is empty when the duration is unknown.
func minutes(o providers.FlightOffer) string {
	if o.DurationMin <= 0 {
		return ""
	}
	return strconv.Itoa(o.DurationMin)
}

func row(o providers.FlightOffer) []string {
	return []string{
		o.ID,
		o.Source,
		o.Airline,
		o.AirlineCode,
		o.FlightNumber,
		o.Origin,
		o.Destination,
		when(o, true),
		when(o, false),
		o.Duration,
		minutes(o),
		strconv.Itoa(o.Stops),
		string(o.Cabin),
		price(o),
		o.Currency,
		seats(o),
		o.BookingLink,
	}
}

// WriteCSV writes a header and one row per offer.
func WriteCSV(w io.Writer, offers []providers.FlightOffer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, o := range offers {
		if err := cw.Write(row(o)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable prints an aligned, human-readable listing.
func WriteTable(w io.Writer, offers []providers.FlightOffer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AIRLINE\tFLIGHT\tROUTE\tDEPARTURE\tARRIVAL\tDURATION\tSTOPS\tPRICE\tSEATS\tSOURCE")
	for _, o := range offers {
		p := "n/a"
		if v, ok := o.PriceValue(); ok {
			p = format.Amount(v, o.Currency)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			o.Airline, o.FlightNumber, o.Origin, o.Destination,
			when(o, true), when(o, false), o.Duration, o.Stops, p, seats(o), o.Source)
	}
	return tw.Flush()
}
