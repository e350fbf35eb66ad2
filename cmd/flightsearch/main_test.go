package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/go-flight-aggregator/internal/report"
	"github.com/you/go-flight-aggregator/internal/service"
	"github.com/you/go-flight-aggregator/internal/validate"
)

func generatorArgs(extra ...string) []string {
	date := time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	args := []string{
		"--origin", "otp", "--destination", "LHR", "--date", date,
		"--generator-mode", "always", "--providers=", "--log-level", "error",
	}
	return append(args, extra...)
}

func TestRun_Table(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), generatorArgs("--max-results", "10"), &out))

	s := out.String()
	assert.True(t, strings.HasPrefix(s, "Bucharest Otopeni, Romania to London Heathrow, United Kingdom on "))
	assert.Contains(t, s, "AIRLINE")
	assert.Contains(t, s, "from generator in")
}

func TestRun_Deals(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), generatorArgs("--view", "deals", "--deals", "2"), &out))

	lines := strings.Split(out.String(), "\n")
	require.Greater(t, len(lines), 4)
	assert.True(t, strings.HasPrefix(lines[1], "AIRLINE"))
	assert.Equal(t, "", lines[4], "two deals follow the header")
}

func TestRun_CSV(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), generatorArgs("--view", "csv"), &out))

	first, _, _ := strings.Cut(out.String(), "\n")
	assert.Equal(t, strings.Join(report.Columns, ","), first)
}

func TestRun_Analytics(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), generatorArgs("--view", "analytics", "--bins", "5"), &out))

	var a service.Analytics
	require.NoError(t, json.Unmarshal(out.Bytes(), &a))
	assert.Positive(t, a.Offers)
	assert.Equal(t, a.Offers, a.Priced)
	assert.LessOrEqual(t, len(a.Histogram.Counts), 5)
}

func TestRun_Errors(t *testing.T) {
	var out bytes.Buffer

	err := run(context.Background(), generatorArgs("--view", "pie"), &out)
	assert.ErrorContains(t, err, `unknown view "pie"`)

	err = run(context.Background(), []string{"--origin", "OTP", "--destination", "LHR", "--date", "tomorrow", "--generator-mode", "always"}, &out)
	var verr *validate.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Fields[0].Field)

	err = run(context.Background(), generatorArgs("--origin", "OT"), &out)
	require.ErrorAs(t, err, &verr)

	err = run(context.Background(), generatorArgs("--generator-mode", "sometimes"), &out)
	assert.ErrorContains(t, err, "generator_mode")

	assert.Empty(t, out.String())
}
