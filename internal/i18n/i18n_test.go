package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		accept   string
		expected language.Tag
	}{
		{"en-US,en;q=0.9", language.English},
		{"de-DE,de;q=0.9", language.German},
		{"fr-FR", language.English},
		{"", language.English},
	}

	for _, tt := range tests {
		got := MatchLanguage(tt.accept)
		base, _ := got.Base()
		exp, _ := tt.expected.Base()
		assert.Equal(t, exp, base, "Accept: %s", tt.accept)
	}
}

func TestCLIPrinter_Locale(t *testing.T) {
	t.Setenv("LC_ALL", "de_DE.UTF-8")
	p := NewCLIPrinter()
	assert.Equal(t, "Verbunden mit ws://localhost/ws\n", p.Sprintf("Connected to %s\n", "ws://localhost/ws"))

	t.Setenv("LC_ALL", "C")
	p = NewCLIPrinter()
	assert.Equal(t, "Connected to ws://localhost/ws\n", p.Sprintf("Connected to %s\n", "ws://localhost/ws"))
}

func TestCLIPrinter_UnknownLocaleFallsBack(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "xx_YY")

	base, _ := localeFromEnv().Base()
	exp, _ := language.English.Base()
	assert.Equal(t, exp, base)
}
