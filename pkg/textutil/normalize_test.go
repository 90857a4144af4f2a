package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already normalized", "ორი კვერცხი", "ორი კვერცხი"},
		{"surrounding whitespace", "  \t ხახვი \n", "ხახვი"},
		{"carriage returns and newlines", "მოხარშეთ\r\nწყალში\r\n", "მოხარშეთ წყალში"},
		{"non-breaking space", "2\u00a0ჭიქა", "2 ჭიქა"},
		{"markup indentation artifact", "ფქვილი\n\u00a0\n                            \n                            500 გრ", "ფქვილი 500 გრ"},
		{"only whitespace", " \r\n\t\u00a0", ""},
		{"empty", "", ""},
		{"decomposed accent composes", "cafe\u0301", "caf\u00e9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalizeAll(t *testing.T) {
	assert.Equal(t, []string{"a b", "c"}, NormalizeAll([]string{" a\n b ", "c"}))
	assert.NotNil(t, NormalizeAll(nil))
	assert.Empty(t, NormalizeAll(nil))
}
