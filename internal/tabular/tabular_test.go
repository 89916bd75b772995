package tabular

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptyInputs(t *testing.T) {
	for _, raw := range []string{"", "OnlyHeader", "\n\n", "  \r\n\t\n", "A\tB\n"} {
		t.Run(raw, func(t *testing.T) {
			assert.Empty(t, Parse(raw))
		})
	}
}

func TestParseShortRowPadding(t *testing.T) {
	rows := Parse("A\tB\n1\t2\n3")
	require.Len(t, rows, 2)

	assert.Equal(t, "1", rows[0].Get("A"))
	assert.Equal(t, "2", rows[0].Get("B"))
	assert.Equal(t, "3", rows[1].Get("A"))

	v, ok := rows[1]["B"]
	assert.True(t, ok, "missing trailing cell must be present as empty string")
	assert.Equal(t, "", v)
}

func TestParseLineEndings(t *testing.T) {
	rows := Parse("TABLE_NAME\r\nusers\r\n\r\norders\n")
	require.Len(t, rows, 2)
	assert.Equal(t, "users", rows[0].Get("TABLE_NAME"))
	assert.Equal(t, "orders", rows[1].Get("TABLE_NAME"))
}

func TestParseSkipsBlankHeaders(t *testing.T) {
	rows := Parse("A\t\tC\n1\t2\t3")
	require.Len(t, rows, 1)

	assert.Len(t, rows[0], 2)
	_, hasEmpty := rows[0][""]
	assert.False(t, hasEmpty)
	assert.Equal(t, "3", rows[0].Get("C"))
}

func TestParseTrimsValues(t *testing.T) {
	rows := Parse(" A \t B\n  x \t y  ")
	require.Len(t, rows, 1)
	assert.Equal(t, "x", rows[0]["A"])
	assert.Equal(t, "y", rows[0]["B"])
}

func TestParseExtraCellsIgnored(t *testing.T) {
	rows := Parse("A\n1\t2\t3")
	require.Len(t, rows, 1)
	assert.Equal(t, Row{"A": "1"}, rows[0])
}

func TestGetMissingField(t *testing.T) {
	assert.Equal(t, "", Row{}.Get("nope"))
}

func TestEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf,
		[]string{"TABLE_NAME", "COLUMN_TYPE", "IS_NULLABLE"},
		[][]any{
			{[]byte("users"), "int(11) unsigned", "NO"},
			{"orders", nil, true},
		})
	require.NoError(t, err)

	assert.Equal(t,
		"TABLE_NAME\tCOLUMN_TYPE\tIS_NULLABLE\nusers\tint(11) unsigned\tNO\norders\tNULL\t1\n",
		buf.String())

	rows := Parse(buf.String())
	require.Len(t, rows, 2)
	assert.Equal(t, "int(11) unsigned", rows[0].Get("COLUMN_TYPE"))
}

func TestEscapeValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"tab", "a\tb", `a\tb`},
		{"newline", "a\nb", `a\nb`},
		{"backslash", `a\b`, `a\\b`},
		{"nul", "a\x00b", `a\0b`},
		{"int", int64(42), "42"},
		{"false", false, "0"},
		{"time", time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), "2024-03-01 12:30:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeValue(tt.in))
		})
	}
}

func TestEncodeNoColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil, nil))
	assert.Empty(t, buf.String())
}
