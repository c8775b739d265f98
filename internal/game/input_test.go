package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGuess(t *testing.T) {
	cfg := Config{Min: 1, Max: 100, MaxAttempts: 12}
	cases := []struct {
		raw     string
		want    int
		wantErr error
	}{
		{"42", 42, nil},
		{"  7 \n", 7, nil},
		{"1", 1, nil},
		{"100", 100, nil},
		{"", 0, ErrNotANumber},
		{"   ", 0, ErrNotANumber},
		{"abc", 0, ErrNotANumber},
		{"4.5", 0, ErrNotANumber},
		{"0", 0, ErrOutOfRange},
		{"101", 0, ErrOutOfRange},
		{"-3", 0, ErrOutOfRange},
	}
	for _, tc := range cases {
		got, err := ParseGuess(tc.raw, cfg)
		if tc.wantErr != nil {
			require.ErrorIs(t, err, tc.wantErr, "raw=%q", tc.raw)
			continue
		}
		require.NoError(t, err, "raw=%q", tc.raw)
		assert.Equal(t, tc.want, got)
	}
}
