package datetime

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize pasa a minúsculas y saca los acentos ("Mañana" -> "manana", "Sí" -> "si").
// Los transformers de x/text tienen estado, así que se crean en cada llamada.
func Normalize(text string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(fold, text)
	if err != nil {
		out = text
	}
	return cases.Lower(language.Spanish).String(out)
}
