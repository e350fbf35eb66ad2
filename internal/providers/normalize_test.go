package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	cases := map[string]*float64{
		"99.90":     Price(99.90),
		" 12 ":      Price(12),
		"0":         Price(0),
		"":          nil,
		"n/a":       nil,
		"-5":        nil,
		"NaN":       nil,
		"nan":       nil,
		"Inf":       nil,
		"+Inf":      nil,
		"-Infinity": nil,
		"Infinity":  nil,
		"1e400":     nil,
	}
	for in, want := range cases {
		got := parsePrice(in)
		if want == nil {
			assert.Nil(t, got, in)
			continue
		}
		require.NotNil(t, got, in)
		assert.InDelta(t, *want, *got, 1e-9, in)
	}
}
