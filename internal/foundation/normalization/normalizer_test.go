package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type color string

const (
	colorRed  color = "red"
	colorBlue color = "blue"
)

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(map[string]color{"Red": colorRed, "blue": colorBlue}, colorRed)

	tests := []struct {
		name  string
		input string
		want  color
	}{
		{"exact match", "blue", colorBlue},
		{"case insensitive", "BLUE", colorBlue},
		{"with spaces", "  red  ", colorRed},
		{"invalid falls back to default", "green", colorRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}

	_, err := n.NormalizeWithError("green")
	require.ErrorContains(t, err, `invalid value "green", valid options: [blue red]`)
	require.Equal(t, []string{"blue", "red"}, n.ValidKeys())
}

func TestEnumNormalizer(t *testing.T) {
	e := NewEnumNormalizer("color", map[string]color{"red": colorRed, "blue": colorBlue}, colorRed)

	v, err := e.NormalizeWithValidation(" Blue ")
	require.NoError(t, err)
	require.Equal(t, colorBlue, v)

	_, err = e.NormalizeWithValidation("green")
	require.ErrorContains(t, err, "invalid color")
	require.Equal(t, []string{"blue", "red"}, e.ValidValues())
}
