package evaluation

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"
)

const (
	contentBase          = 60
	contentNoDictionary  = 70
	contentPositive      = 2
	contentNegative      = 5
	contentAdvanced      = 5
	contentPositiveBonus = 10
	contentPositiveMin   = 3
	contentAdvancedBonus = 15

	fluencyBase           = 70
	fluencySentenceBonus  = 10
	fluencySentenceMinLen = 10
	fluencySentenceMaxLen = 30
	fluencyRichnessBonus  = 10
	fluencyRichnessMin    = 0.7
	fluencyConnectorStep  = 2
	fluencyConnectorCap   = 10

	depthBase        = 50
	depthLong        = 200
	depthLongBonus   = 15
	depthVeryLong    = 400
	depthVeryLongAdd = 10
	depthExample     = 15
	depthSequencing  = 10
	depthReflection  = 10
	depthPerspective = 5

	attitudeBase        = 70
	attitudePositive    = 3
	attitudeNegative    = 8
	attitudeExclamation = 5
	attitudeQuestion    = 3

	timingBase      = 75
	timingGood      = 15
	timingTooShort  = 20
	timingTooLong   = 10
	timingGoodLow   = 0.7
	timingGoodHigh  = 1.3
	timingShortMark = 0.5
	timingLongMark  = 2.0
)

// contentScore measures how well the answer uses the major's vocabulary.
func (e *Evaluator) contentScore(answer, major string) int {
	dict, ok := e.catalog.Dictionary(major)
	if !ok {
		return contentNoDictionary
	}

	lower := strings.ToLower(answer)
	positive := countDistinct(lower, dict.Positive)
	negative := countDistinct(lower, dict.Negative)
	advanced := countDistinct(lower, dict.Advanced)

	score := contentBase +
		positive*contentPositive -
		negative*contentNegative +
		advanced*contentAdvanced

	if positive >= contentPositiveMin {
		score += contentPositiveBonus
	}
	if advanced >= 1 {
		score += contentAdvancedBonus
	}

	return clamp(score, minScore, maxScore)
}

// fluencyScore looks at sentence length, vocabulary variety and connectors.
func (e *Evaluator) fluencyScore(answer string) int {
	lex := &e.catalog.Lexicon
	score := fluencyBase

	terminators := lex.SentenceTerminators
	parts := strings.FieldsFunc(answer, func(r rune) bool {
		return strings.ContainsRune(terminators, r)
	})

	sentences, total := 0, 0
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sentences++
		total += utf8.RuneCountInString(part)
	}
	if sentences > 0 {
		avg := float64(total) / float64(sentences)
		if avg >= fluencySentenceMinLen && avg <= fluencySentenceMaxLen {
			score += fluencySentenceBonus
		}
	}

	tokens := strings.Fields(answer)
	if len(tokens) > 0 {
		distinct := make(map[string]struct{}, len(tokens))
		for _, token := range tokens {
			distinct[token] = struct{}{}
		}
		if float64(len(distinct))/float64(len(tokens)) > fluencyRichnessMin {
			score += fluencyRichnessBonus
		}
	}

	connectors := 0
	for _, c := range lex.Connectors {
		if c == "" {
			continue
		}
		connectors += strings.Count(answer, c)
	}
	score += min(connectors*fluencyConnectorStep, fluencyConnectorCap)

	return clamp(score, 0, maxScore)
}

// depthScore rewards length, examples, structure, reflection and perspectives.
func (e *Evaluator) depthScore(answer string) int {
	patterns := &e.catalog.Lexicon.Patterns
	score := depthBase

	length := utf8.RuneCountInString(answer)
	if length > depthLong {
		score += depthLongBonus
	}
	if length > depthVeryLong {
		score += depthVeryLongAdd
	}

	if matches(patterns.ExamplePattern(), answer) {
		score += depthExample
	}
	if matches(patterns.SequencingPattern(), answer) {
		score += depthSequencing
	}
	if matches(patterns.ReflectionPattern(), answer) {
		score += depthReflection
	}
	for _, re := range patterns.PerspectivePatterns() {
		if re.MatchString(answer) {
			score += depthPerspective
		}
	}

	return min(score, maxScore)
}

// attitudeScore weighs positive against negative sentiment words.
func (e *Evaluator) attitudeScore(answer string) int {
	lex := &e.catalog.Lexicon
	lower := strings.ToLower(answer)

	positive := countDistinct(lower, lex.PositiveAttitude)
	negative := countDistinct(lower, lex.NegativeAttitude)

	score := attitudeBase + positive*attitudePositive - negative*attitudeNegative

	if strings.Contains(answer, "！") {
		score += attitudeExclamation
	}
	if positive > 0 && strings.ContainsAny(answer, "?？") {
		score += attitudeQuestion
	}

	return clamp(score, minScore, maxScore)
}

// timingScore compares the answer time with the expected time. Without an
// expected duration no adjustment is made.
func timingScore(duration, expected int) int {
	score := timingBase
	if expected <= 0 {
		return score
	}

	ratio := float64(duration) / float64(expected)
	switch {
	case ratio >= timingGoodLow && ratio <= timingGoodHigh:
		score += timingGood
	case ratio < timingShortMark:
		score -= timingTooShort
	case ratio > timingLongMark:
		score -= timingTooLong
	}

	return score
}

// countDistinct counts the distinct words found as substrings of text.
func countDistinct(text string, words []string) int {
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		if strings.Contains(text, w) {
			seen[w] = struct{}{}
		}
	}
	return len(seen)
}

func matches(re *regexp.Regexp, s string) bool {
	if re == nil {
		return false
	}
	return re.MatchString(s)
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
