package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatCents(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{99, "0.99"},
		{100, "1.00"},
		{15000, "150.00"},
		{15099, "150.99"},
		{-5, "-0.05"},
		{-15000, "-150.00"},
	}

	for _, tc := range cases {
		require.Equalf(t, tc.want, FormatCents(tc.cents), "cents=%d", tc.cents)
	}
}

func TestFormatCentsOrZero(t *testing.T) {
	require.Equal(t, "0.00", FormatCentsOrZero(nil))

	v := int64(2500)
	require.Equal(t, "25.00", FormatCentsOrZero(&v))
}
