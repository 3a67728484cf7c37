package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// stopwordPattern lists tokens that carry no identity in course and
// instructor names: modalities, languages, levels, organisational codes,
// country abbreviations and a few recurring noise words. It is matched
// against whole, already folded tokens only.
var stopwordPattern = regexp.MustCompile(`^(?:` + strings.Join([]string{
	// modalities
	`online`, `presencial`, `virtual`, `hibrido`, `hybrid`, `remoto`, `remote`,
	// languages
	`english`, `espanol`, `aleman`, `coreano`, `chino`, `ruso`, `japones`,
	`frances`, `italiano`, `mandarin`,
	// levels and courses
	`nivelacion`, `beginner`, `electiv[oa]s?`, `leccion(?:es)?`, `repit[eo]?`,
	`repaso`, `crash`, `complete`, `revision`, `evaluacion(?:es)?`,
	// organisation
	`bvp`, `bvd`, `bvs`, `pia`, `mod`, `otg`, `kids`, `look\d+`, `tz\d+`,
	// countries
	`per`, `ven`, `arg`, `uru`,
	// misc
	`true`, `business`, `impact`, `social`, `travel`, `gerencia`, `beca`,
	`camacho`, `esp`,
}, `|`) + `)$`)

// IsStopword reports whether a folded token is domain noise.
func IsStopword(token string) bool {
	return token != "" && stopwordPattern.MatchString(token)
}

// Canonical builds the compact exact-match key of s: stopwords dropped,
// diacritics stripped, everything but letters and digits removed, casefolded.
// "Grupo 3 - CH Caterpillar (Online)" -> "grupo3chcaterpillar".
func Canonical(s string) string {
	var b strings.Builder
	for _, token := range foldedTokens(s) {
		if IsStopword(token) {
			continue
		}
		b.WriteString(token)
	}

	key := b.String()
	// Joined tokens may spell a stopword ("on line"); re-running the
	// function on its own output must not change it.
	if IsStopword(key) {
		return ""
	}
	return key
}

// Normalize builds the space separated key used for fuzzy matching.
// Digits are stripped since group numbers are not discriminative.
// "GRUPO 3 - CH CATERPILLAR L5" -> "grupo ch caterpillar l".
func Normalize(s string) string {
	tokens := foldedTokens(s)
	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		// "tz5" is noise as a whole; once stripped to "tz" it no longer is
		if IsStopword(token) {
			continue
		}
		token = stripDigits(token)
		if token == "" || IsStopword(token) {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}

// foldedTokens splits s on anything that is not a letter, digit or
// combining mark and folds each token.
func foldedTokens(s string) []string {
	if s == "" {
		return nil
	}

	raw := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r)
	})

	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		if folded := Fold(token); folded != "" {
			tokens = append(tokens, folded)
		}
	}
	return tokens
}

// Fold strips diacritics and casefolds. Non letter/digit runes left over
// after decomposition (e.g. from compatibility forms) are dropped.
func Fold(s string) string {
	decomposed := norm.NFKD.String(s)
	stripped := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return -1
		}
		return r
	}, decomposed)
	return cases.Fold().String(stripped)
}

func stripDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, s)
}
