package domain

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// AnswerTolerance is the absolute difference allowed between a numeric
// answer and the expected value.
const AnswerTolerance = 0.01

// CheckAnswer reports whether answer is an acceptable response to q.
//
// Multiple-choice answers match after case folding and whitespace removal.
// Free responses that parse as numbers on both sides match within
// AnswerTolerance; any other free response must match after case folding and
// whitespace collapsing.
func CheckAnswer(q Question, answer string) bool {
	if q.MultipleChoice() {
		return squash(answer) == squash(q.Answer)
	}
	got, gotOK := parseNumber(answer)
	want, wantOK := parseNumber(q.Answer)
	if gotOK && wantOK {
		return math.Abs(got-want) <= AnswerTolerance
	}
	return collapse(answer) == collapse(q.Answer)
}

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, cases.Fold().String(s))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

// parseNumber accepts decimals, "a/b" fractions and values with a trailing
// degree sign.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "°"))
	if s == "" {
		return 0, false
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		a, errA := strconv.ParseFloat(strings.TrimSpace(num), 64)
		b, errB := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if errA != nil || errB != nil || b == 0 {
			return 0, false
		}
		return a / b, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
