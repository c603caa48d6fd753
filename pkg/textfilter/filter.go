package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Clean normalizes raw generation-gateway output before it is shown to
// players: code fences and markdown emphasis are stripped, whitespace
// is collapsed, and runs of blank lines are reduced to paragraph
// breaks. LLM providers disagree on formatting; players should not see
// the difference.
func Clean(text string) string {
	text = fenceRe.ReplaceAllString(text, "")
	text = emphasisRe.ReplaceAllString(text, "$1")
	text = headingRe.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

var (
	fenceRe    = regexp.MustCompile("(?s)```[a-zA-Z]*\n?|```")
	emphasisRe = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
	headingRe  = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// ShouldFilterContent reports whether generated text should be run
// through the Masker for a story with the given content rating.
// Unrated stories are left alone.
func ShouldFilterContent(rating string) bool {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G", "PG", "PG13", "PG-13":
		return true
	default:
		return false
	}
}

// maskedWords maps words that family-rated stories should not surface
// to tamer alternatives. The list is deliberately short; authors who
// need stricter filtering rate their stories accordingly upstream.
var maskedWords = map[string]string{
	"damn":    "dang",
	"hell":    "heck",
	"shit":    "shoot",
	"fuck":    "fudge",
	"ass":     "butt",
	"bastard": "scoundrel",
	"bitch":   "wretch",
	"crap":    "junk",
}

// Masker replaces strong language in generated text with tamer
// alternatives, preserving the case pattern of the original word.
type Masker struct {
	regexes map[string]*regexp.Regexp
}

// NewMasker compiles the word patterns once.
func NewMasker() *Masker {
	m := &Masker{regexes: make(map[string]*regexp.Regexp, len(maskedWords))}
	for word := range maskedWords {
		m.regexes[word] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	}
	return m
}

// Mask returns the text with masked words replaced.
func (m *Masker) Mask(text string) string {
	result := text
	for word, replacement := range maskedWords {
		result = m.regexes[word].ReplaceAllStringFunc(result, func(match string) string {
			return preserveCase(match, replacement)
		})
	}
	return result
}

// preserveCase applies the case pattern of the original word to the
// replacement.
func preserveCase(original, replacement string) string {
	if original == "" {
		return replacement
	}
	if strings.ToUpper(original) == original {
		return strings.ToUpper(replacement)
	}
	if strings.ToLower(original) == original {
		return replacement
	}
	titleCaser := cases.Title(language.English)
	if titleCaser.String(strings.ToLower(original)) == original {
		return titleCaser.String(replacement)
	}
	// Mixed case: copy the pattern character by character.
	out := make([]rune, 0, len(replacement))
	origRunes := []rune(original)
	for i, r := range []rune(replacement) {
		if i < len(origRunes) && unicode.IsUpper(origRunes[i]) {
			out = append(out, unicode.ToUpper(r))
		} else {
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}
