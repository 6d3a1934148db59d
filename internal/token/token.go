// Package token normalizes free-text facility names into comparable tokens by
// stripping generic water-utility and mobile-home-park vocabulary. Tokenizers
// are pure functions: the same input always yields the same token, and an
// input that reduces to nothing yields the empty token, which participates in
// no equality-based match rule.
package token

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Lexicon is an ordered list of regex patterns whose matches are removed
// before comparison. Patterns are applied word-bounded and case-insensitively
// against the upper-cased name.
type Lexicon struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// WSLexicon strips generic, legal, and administrative words from water
// system names.
var WSLexicon = Lexicon{
	Name: "water_system",
	Patterns: []string{
		`(CITY|TOWN|VILLAGE)( OF)?`,
		`WSD`, `HOA`, `WATERING POINT`, `LLC`, `PWD`, `PWS`, `SUBDIVISION`,
		`MUNICIPAL UTILITIES`, `WATERWORKS`, `MUTUAL`, `WSC`, `PSD`, `MUD`,
		`(PUBLIC |RURAL )?WATER( DISTRICT| COMPANY| SYSTEM| WORKS| DEPARTMENT| DEPT| UTILITY)?`,
	},
}

// MHPLexicon strips mobile-home-park vocabulary and its many synonyms.
var MHPLexicon = Lexicon{
	Name: "mhp",
	Patterns: []string{
		`MOBILE (HOME|TRAILER)( PARK| PK)?`,
		`MOBILE (ESTATE(S?)|VILLAGE|MANOR|COURT|VILLA|HAVEN|RANCH|LODGE|RESORT)`,
		`MOBILE(HOME|LODGE)`,
		`MOBILE( PARK| PK| COM(MUNITY)?)`,
		`MHP`,
	},
}

var (
	nonWordRe    = regexp.MustCompile(`[^\w ]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)

	// Strip combining marks after NFD decomposition, so accented names
	// compare equal to their plain-ASCII spellings.
	foldTransform = transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
)

// Tokenizer applies a lexicon to names. Build one per lexicon with New; the
// compiled form is safe for concurrent use.
type Tokenizer struct {
	lexicon Lexicon
	strip   *regexp.Regexp
}

// New compiles a tokenizer for the given lexicon.
func New(lex Lexicon) *Tokenizer {
	joined := strings.Join(lex.Patterns, "|")
	return &Tokenizer{
		lexicon: lex,
		strip:   regexp.MustCompile(`\b(` + joined + `)\b`),
	}
}

var (
	wsTokenizer  = New(WSLexicon)
	mhpTokenizer = New(MHPLexicon)
)

// WSName tokenizes a water system name. Returns "" when nothing remains.
func WSName(name string) string {
	return wsTokenizer.Tokenize(name)
}

// MHPName tokenizes a mobile-home-park name. Returns "" when nothing remains.
func MHPName(name string) string {
	return mhpTokenizer.Tokenize(name)
}

// Tokenize upper-cases the name, folds diacritics, removes lexicon words and
// non-word characters, and collapses whitespace. The empty string means "no
// token": callers must exclude it from equality joins rather than letting two
// empty tokens match each other.
func (t *Tokenizer) Tokenize(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}

	s := strings.ToUpper(name)
	if folded, _, err := transform.String(foldTransform, s); err == nil {
		s = folded
	}

	s = t.strip.ReplaceAllString(s, "")
	s = nonWordRe.ReplaceAllString(s, " ")
	s = multiSpaceRe.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}
