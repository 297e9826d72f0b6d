package sat

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sufijos de régimen societario que el SAT no admite en el nombre del receptor (CFDI 4.0).
var corporateSuffixes = []string{
	" S.A.P.I. DE C.V.",
	" SAPI DE CV",
	" S.A. DE C.V.",
	" SA DE CV",
	" S. DE R.L. DE C.V.",
	" S DE RL DE CV",
	" S.C.",
	" SC",
}

// NormalizeName deja el nombre del receptor como lo exige el SAT:
// composición NFC, mayúsculas, espacios colapsados y sin sufijo de régimen societario.
func NormalizeName(name string) string {
	composed, _, err := transform.String(norm.NFC, name)
	if err != nil {
		composed = name
	}
	// cases.Caser guarda estado: uno por llamada.
	out := cases.Upper(language.LatinAmericanSpanish).String(strings.Join(strings.Fields(composed), " "))
	for _, suffix := range corporateSuffixes {
		if strings.HasSuffix(out, suffix) {
			out = strings.TrimSpace(strings.TrimSuffix(out, suffix))
			break
		}
	}
	return out
}
