package srs

import (
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/eslsoft/wordpace/internal/entity"
)

// NeutralComplexityWeight is returned when no mistake is detected.
const NeutralComplexityWeight = 1.0

// MaxComplexityWeight bounds the composite weight so a single attempt cannot
// collapse the interval to its floor.
const MaxComplexityWeight = 2.0

// Mistake is one classified mistake with its composite severity in [0,1].
type Mistake struct {
	Type     entity.MistakeType
	Severity float64
}

// Classification is the result of running the full check battery over one
// incorrect answer.
type Classification struct {
	// Mistakes holds every matched type, in battery priority order.
	Mistakes []Mistake
	// ComplexityWeight is >= 1, monotone in the mistake set, capped at
	// MaxComplexityWeight.
	ComplexityWeight float64
}

// HasMistakes reports whether any check matched.
func (c Classification) HasMistakes() bool { return len(c.Mistakes) > 0 }

// MaxSeverity returns the largest severity in the set, 0 when empty.
func (c Classification) MaxSeverity() float64 {
	var max float64
	for _, m := range c.Mistakes {
		if m.Severity > max {
			max = m.Severity
		}
	}
	return max
}

// Classifier compares a given answer against the correct one using a fixed,
// priority-ordered battery of language-aware checks. All matching checks
// contribute to the result; this is not first-match-wins. The classifier is
// stateless and safe for concurrent use.
type Classifier struct{}

// NewClassifier constructs the classifier.
func NewClassifier() *Classifier { return &Classifier{} }

// Classify runs the battery. Identical answers (after trimming) yield an empty
// mistake set and the neutral weight. The function is total: any pair of
// strings, including empty ones, classifies without error.
func (c *Classifier) Classify(item *entity.LearningItem, correct, given string, lang entity.Language) Classification {
	correct = strings.TrimSpace(correct)
	given = strings.TrimSpace(given)
	if lang == entity.LanguageUnspecified && item != nil {
		lang = item.Language
	}
	var profile entity.ComplexityProfile
	if item != nil {
		profile = item.Complexity
	}

	if correct == given {
		return Classification{ComplexityWeight: NeutralComplexityWeight}
	}

	checks := []struct {
		typ   entity.MistakeType
		gated bool
		match func() bool
	}{
		{entity.MistakeArticle, true, func() bool { return articleConfused(correct, given, lang) }},
		{entity.MistakeDiacritic, false, func() bool { return diacriticConfused(correct, given) }},
		{entity.MistakeCompound, true, func() bool { return compoundSplit(correct, given) }},
		{entity.MistakeCase, true, func() bool { return caseEndingConfused(correct, given, lang) }},
		{entity.MistakePhonetic, true, func() bool { return phoneticConfused(correct, given) }},
		{entity.MistakeVisual, false, func() bool { return visuallyConfused(correct, given) }},
		{entity.MistakeCapitalization, false, func() bool { return capitalizationOnly(correct, given) }},
	}

	var mistakes []Mistake
	for _, check := range checks {
		coeff := profile.Coefficient(check.typ)
		if check.gated && coeff <= 0 {
			continue
		}
		if !check.match() {
			continue
		}
		mistakes = append(mistakes, Mistake{Type: check.typ, Severity: severity(check.typ, coeff)})
	}
	if len(mistakes) == 0 {
		mistakes = append(mistakes, Mistake{
			Type:     entity.MistakeUnclassified,
			Severity: entity.MistakeUnclassified.BaseSeverity(),
		})
	}

	return Classification{Mistakes: mistakes, ComplexityWeight: complexityWeight(mistakes)}
}

func severity(t entity.MistakeType, coeff float64) float64 {
	s := t.BaseSeverity() * coeff
	if s > 1 {
		s = 1
	}
	if s < 0 {
		s = 0
	}
	return s
}

// complexityWeight grows with every matched mistake and its severity, bounded
// so compounding mistakes cannot run away.
func complexityWeight(mistakes []Mistake) float64 {
	weight := NeutralComplexityWeight
	for _, m := range mistakes {
		weight += 0.25 * m.Severity
	}
	if weight > MaxComplexityWeight {
		weight = MaxComplexityWeight
	}
	return weight
}

var articlesByLanguage = map[entity.Language][]string{
	entity.LanguageEnglish: {"the", "a", "an"},
	entity.LanguageGerman:  {"der", "die", "das", "den", "dem", "des", "ein", "eine", "einen", "einem", "einer", "eines"},
	entity.LanguageFrench:  {"le", "la", "les", "l'", "un", "une", "des"},
	entity.LanguageSpanish: {"el", "la", "los", "las", "un", "una", "unos", "unas"},
	entity.LanguageItalian: {"il", "lo", "la", "i", "gli", "le", "un", "una", "uno"},
	entity.LanguageDutch:   {"de", "het", "een"},
}

func isArticle(token string, lang entity.Language) bool {
	token = strings.ToLower(token)
	for _, a := range articlesByLanguage[entity.NormalizeLanguage(lang)] {
		if token == a {
			return true
		}
	}
	return false
}

// articleConfused matches when the answers differ only in a leading article:
// either both carry different articles, or the given answer dropped it.
func articleConfused(correct, given string, lang entity.Language) bool {
	cTokens := strings.Fields(correct)
	gTokens := strings.Fields(given)
	if len(cTokens) < 2 || !isArticle(cTokens[0], lang) {
		return false
	}
	cRest := strings.ToLower(strings.Join(cTokens[1:], " "))

	if len(gTokens) == len(cTokens) && isArticle(gTokens[0], lang) {
		gRest := strings.ToLower(strings.Join(gTokens[1:], " "))
		return cRest == gRest && !strings.EqualFold(cTokens[0], gTokens[0])
	}
	// Dropped article: "Katze" given for "die Katze".
	return strings.ToLower(strings.Join(gTokens, " ")) == cRest
}

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var ligatureReplacer = strings.NewReplacer("ß", "ss", "æ", "ae", "œ", "oe")

func foldDiacritics(s string) string {
	s = ligatureReplacer.Replace(s)
	folded, _, err := transform.String(diacriticFolder, s)
	if err != nil {
		return s
	}
	return folded
}

// diacriticConfused matches when the answers are equal after stripping
// diacritics but differ with them, ignoring letter case.
func diacriticConfused(correct, given string) bool {
	lc, lg := strings.ToLower(correct), strings.ToLower(given)
	return lc != lg && foldDiacritics(lc) == foldDiacritics(lg)
}

var separatorReplacer = strings.NewReplacer(" ", "", "-", "")

// compoundSplit matches segmentation errors: the answers become equal once
// spaces and hyphens are removed.
func compoundSplit(correct, given string) bool {
	lc, lg := strings.ToLower(correct), strings.ToLower(given)
	if lc == lg {
		return false
	}
	return separatorReplacer.Replace(lc) == separatorReplacer.Replace(lg)
}

// Declension endings checked for grammatical case confusion, longest first so
// "-en" wins over "-n".
var caseEndings = []string{"en", "em", "er", "es", "e", "n", "s"}

func trimCaseEnding(word string) (string, string) {
	for _, ending := range caseEndings {
		if len(word) > len(ending) && strings.HasSuffix(word, ending) {
			return word[:len(word)-len(ending)], ending
		}
	}
	return word, ""
}

// caseEndingConfused matches when the final words share a stem but end in
// different declension suffixes.
func caseEndingConfused(correct, given string, _ entity.Language) bool {
	cTokens := strings.Fields(strings.ToLower(correct))
	gTokens := strings.Fields(strings.ToLower(given))
	if len(cTokens) == 0 || len(gTokens) == 0 {
		return false
	}
	cWord, gWord := cTokens[len(cTokens)-1], gTokens[len(gTokens)-1]
	if cWord == gWord {
		return false
	}
	cStem, cEnd := trimCaseEnding(cWord)
	gStem, gEnd := trimCaseEnding(gWord)
	return cStem != "" && cStem == gStem && cEnd != gEnd
}

func phoneticClass(r rune) rune {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return 'a'
	case 'b', 'p':
		return 'b'
	case 'd', 't':
		return 'd'
	case 'c', 'g', 'k', 'q', 'x':
		return 'k'
	case 'f', 'v', 'w':
		return 'f'
	case 's', 'z':
		return 's'
	case 'm', 'n':
		return 'm'
	case 'l':
		return 'l'
	case 'r':
		return 'r'
	case 'j':
		return 'j'
	default:
		return 0
	}
}

// phoneticKey reduces a word to consonant classes: diacritics folded,
// non-leading vowels dropped, adjacent duplicates collapsed.
func phoneticKey(s string) string {
	s = foldDiacritics(strings.ToLower(s))
	var b strings.Builder
	var last rune
	first := true
	for _, r := range s {
		c := phoneticClass(r)
		if c == 0 {
			continue
		}
		if c == 'a' && !first {
			continue
		}
		if c != last {
			b.WriteRune(c)
		}
		last = c
		first = false
	}
	return b.String()
}

// phoneticConfused matches near-homophones via edit distance on phonetic
// keys. Differences already explained by case or diacritics alone are left to
// their dedicated checks.
func phoneticConfused(correct, given string) bool {
	lc, lg := strings.ToLower(correct), strings.ToLower(given)
	if foldDiacritics(lc) == foldDiacritics(lg) {
		return false
	}
	ck, gk := phoneticKey(lc), phoneticKey(lg)
	if ck == "" || gk == "" {
		return false
	}
	return levenshtein.Distance(ck, gk, nil) <= 1
}

// visuallyConfused matches small spelling slips: case-insensitive edit
// distance of 1 or 2.
func visuallyConfused(correct, given string) bool {
	lc, lg := strings.ToLower(correct), strings.ToLower(given)
	if lc == lg {
		return false
	}
	d := levenshtein.Distance(lc, lg, nil)
	return d >= 1 && d <= 2
}

func capitalizationOnly(correct, given string) bool {
	return correct != given && strings.EqualFold(correct, given)
}
