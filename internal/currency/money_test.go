package currency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/benefitlimits/internal/domain"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		cents domain.Cents
		code  string
		want  string
	}{
		{150000, "MYR", "RM 1,500.00"},
		{1000000, "", "RM 10,000.00"},
		{5, "usd", "$ 0.05"},
		{123456789, "SGD", "S$ 1,234,567.89"},
		{-2550, "MYR", "RM -25.50"},
		{99, "EUR", "EUR 0.99"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Format(tc.cents, tc.code))
	}
}

func TestParseMajor(t *testing.T) {
	cases := []struct {
		in   string
		want domain.Cents
	}{
		{"1500", 150000},
		{"1,500.5", 150050},
		{" 0.07 ", 7},
		{"200.00", 20000},
	}
	for _, tc := range cases {
		got, err := ParseMajor(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "abc", "-1", "1.005"} {
		_, err := ParseMajor(bad)
		assert.Error(t, err, bad)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "10.0%", Percent(10))
	assert.Equal(t, "66.7%", Percent(66.666666))
	assert.Equal(t, "0.0%", Percent(0))
}
