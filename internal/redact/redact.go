// Package redact masks shopper contact and payment details before text is
// persisted.
package redact

import (
	"regexp"
	"strings"
)

// Kind names a category of sensitive data
type Kind string

const (
	KindEmail      Kind = "email"
	KindCreditCard Kind = "credit_card"
	KindPhone      Kind = "phone"
)

type rule struct {
	kind    Kind
	pattern *regexp.Regexp
}

// Order matters: card numbers are masked before the looser phone pattern
// can claim part of them.
var rules = []rule{
	{KindEmail, regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)},
	{KindCreditCard, regexp.MustCompile(`\b(?:\d[ -]?){12,15}\d\b`)},
	{KindPhone, regexp.MustCompile(`(?:\+\d{1,3}[ .-]?)?\(?\b\d{3}\)?[ .-]?\d{3}[ .-]?\d{4}\b`)},
}

// Placeholder returns the marker substituted for kind
func Placeholder(kind Kind) string {
	return "[" + strings.ToUpper(string(kind)) + "]"
}

// Text returns s with every detected value replaced by its placeholder.
func Text(s string) string {
	for _, r := range rules {
		s = r.pattern.ReplaceAllString(s, Placeholder(r.kind))
	}
	return s
}

// Detect reports which kinds occur in s
func Detect(s string) []Kind {
	var kinds []Kind
	for _, r := range rules {
		if r.pattern.MatchString(s) {
			kinds = append(kinds, r.kind)
			s = r.pattern.ReplaceAllString(s, "")
		}
	}
	return kinds
}
