// Package airports is a small embedded airport directory used to help
// users pick IATA codes.
package airports

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed airports.yaml
var airportsYAML []byte

type Airport struct {
	Continent string `json:"continent"`
	Country   string `json:"country"`
	Name      string `json:"airport"`
	IATA      string `json:"iata"`
}

// DB is continent -> country -> airport name -> IATA code.
type DB struct {
	tree   map[string]map[string]map[string]string
	all    []Airport
	byIATA map[string]Airport
}

// Parse builds a DB from YAML in the embedded file's shape.
func Parse(data []byte) (*DB, error) {
	var tree map[string]map[string]map[string]string
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse airports: %w", err)
	}

	db := &DB{tree: tree, byIATA: map[string]Airport{}}
	for continent, countries := range tree {
		for country, airports := range countries {
			for name, code := range airports {
				a := Airport{Continent: continent, Country: country, Name: name, IATA: strings.ToUpper(code)}
				if prev, dup := db.byIATA[a.IATA]; dup {
					return nil, fmt.Errorf("parse airports: %s listed as %q and %q", a.IATA, prev.Name, a.Name)
				}
				db.byIATA[a.IATA] = a
				db.all = append(db.all, a)
			}
		}
	}
	slices.SortFunc(db.all, compareAirports)
	return db, nil
}

func compareAirports(a, b Airport) int {
	for _, c := range []int{
		strings.Compare(a.Continent, b.Continent),
		strings.Compare(a.Country, b.Country),
		strings.Compare(a.Name, b.Name),
	} {
		if c != 0 {
			return c
		}
	}
	return 0
}

var defaultDB = mustParse()

func mustParse() *DB {
	db, err := Parse(airportsYAML)
	if err != nil {
		panic(err)
	}
	return db
}

// Default returns the embedded directory.
func Default() *DB { return defaultDB }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (db *DB) Continents() []string {
	return sortedKeys(db.tree)
}

// Countries lists a continent's countries, or nil for an unknown continent.
func (db *DB) Countries(continent string) []string {
	countries, ok := db.tree[continent]
	if !ok {
		return nil
	}
	return sortedKeys(countries)
}

// ByCountry lists a country's airports sorted by name.
func (db *DB) ByCountry(continent, country string) []Airport {
	var out []Airport
	for _, a := range db.all {
		if a.Continent == continent && a.Country == country {
			out = append(out, a)
		}
	}
	return out
}

// Search matches query case-insensitively against airport names and codes.
func (db *DB) Search(query string) []Airport {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Airport
	for _, a := range db.all {
		if strings.Contains(strings.ToUpper(a.Name), q) || strings.Contains(a.IATA, q) {
			out = append(out, a)
		}
	}
	return out
}

func (db *DB) Lookup(iata string) (Airport, bool) {
	a, ok := db.byIATA[strings.ToUpper(strings.TrimSpace(iata))]
	return a, ok
}

// Name renders "Airport, Country" for a code, or the code itself when it
// is not in the directory.
func (db *DB) Name(iata string) string {
	if a, ok := db.Lookup(iata); ok {
		return a.Name + ", " + a.Country
	}
	return strings.ToUpper(iata)
}
