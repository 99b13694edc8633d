package escape_test

import (
	"testing"

	"github.com/strata-format/go-strata/internal/escape"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text passes through", "hello world", "hello world"},
		{"empty string becomes anchor", "", `\x`},
		{"backslash", `a\b`, `a\sb`},
		{"tab", "a\tb", `a\tb`},
		{"newline", "a\nb", `a\nb`},
		{"carriage return", "a\rb", `a\rb`},
		{"leading space is anchored", " x", `\x x`},
		{"trailing space is anchored", "x ", `x \x`},
		{"single space is anchored both ways", " ", `\x \x`},
		{"interior spaces untouched", "a b c", "a b c"},
		{"separators stay literal in values", "a.b:c=d", "a.b:c=d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, escape.Escape(tt.in))
		})
	}
}

func TestEscapeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain key", "host", "host"},
		{"dot", "a.b", `a\db`},
		{"colon", "a:b", `a\cb`},
		{"equals", "a=b", `a\eb`},
		{"all separators", "a.b:c=d", `a\db\cc\ed`},
		{"leading dash is anchored", "-flag", `\x-flag`},
		{"leading marker is anchored", ">out", `\x>out`},
		{"interior dash untouched", "a-b", "a-b"},
		{"leading space", " k", `\x k`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, escape.EscapeKey(tt.in))
		})
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no escapes", "plain", "plain"},
		{"backslash", `a\sb`, `a\b`},
		{"tab", `a\tb`, "a\tb"},
		{"newline", `a\nb`, "a\nb"},
		{"carriage return", `a\rb`, "a\rb"},
		{"anchor drops out", `\x x \x`, " x "},
		{"bare anchor is empty", `\x`, ""},
		{"unknown sequence kept verbatim", `a\qb`, `a\qb`},
		{"key-only sequence kept in values", `a\db`, `a\db`},
		{"trailing lone marker kept", `a\`, `a\`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, escape.Unescape(tt.in))
		})
	}
}

func TestUnescapeKey(t *testing.T) {
	require.Equal(t, "a.b", escape.UnescapeKey(`a\db`))
	require.Equal(t, "a:b", escape.UnescapeKey(`a\cb`))
	require.Equal(t, "a=b", escape.UnescapeKey(`a\eb`))
	require.Equal(t, "-flag", escape.UnescapeKey(`\x-flag`))
}

func TestEscapeRoundTrip(t *testing.T) {
	values := []string{
		"", " ", "plain", " lead", "trail ", "a\tb\nc\rd", `back\slash`,
		"a.b:c=d", "mixed \t and \\ and .", "  double lead",
	}
	for _, v := range values {
		require.Equal(t, v, escape.Unescape(escape.Escape(v)), "value %q", v)
		require.Equal(t, v, escape.UnescapeKey(escape.EscapeKey(v)), "key %q", v)
	}
}
