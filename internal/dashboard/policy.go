package dashboard

import "strings"

// Policy decides whether an authenticated operator may read analytics.
type Policy interface {
	Allow(operator string) bool
}

type PolicyFunc func(operator string) bool

func (f PolicyFunc) Allow(operator string) bool { return f(operator) }

// OperatorSet allows a fixed list of operator emails, compared case-insensitively.
type OperatorSet map[string]struct{}

func NewOperatorSet(emails []string) OperatorSet {
	set := make(OperatorSet, len(emails))
	for _, e := range emails {
		if e = normalizeOperator(e); e != "" {
			set[e] = struct{}{}
		}
	}
	return set
}

func (s OperatorSet) Allow(operator string) bool {
	operator = normalizeOperator(operator)
	if operator == "" {
		return false
	}
	_, ok := s[operator]
	return ok
}

func normalizeOperator(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
