package normalize

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Kind selects what a Rule does.
type Kind string

const (
	// KindNFC composes the string to Unicode normalization form C.
	KindNFC Kind = "nfc"
	// KindStripSpace removes all whitespace, including zero-width spaces.
	KindStripSpace Kind = "strip_space"
	// KindTrimPrefix removes Value from the start of the name.
	KindTrimPrefix Kind = "trim_prefix"
	// KindTrimSuffix removes Value from the end of the name.
	KindTrimSuffix Kind = "trim_suffix"
	// KindRemove removes every occurrence of Value.
	KindRemove Kind = "remove"
	// KindAlias rewrites a name equal to Value into To.
	KindAlias Kind = "alias"
)

// Trim and remove rules repeat until their value no longer occurs, so a
// pass that changes the string either shrinks it or applies an alias. The
// fixpoint loop is bounded by the input length plus the total length of alias
// targets; aliases that never settle are rejected by New.

// Rule is one step of a normalization policy.
type Rule struct {
	Kind  Kind   `toml:"kind"`
	Value string `toml:"value"`
	To    string `toml:"to"`
}

func (r Rule) apply(s string) string {
	switch r.Kind {
	case KindNFC:
		return norm.NFC.String(s)
	case KindStripSpace:
		return strings.Map(func(c rune) rune {
			if unicode.IsSpace(c) || c == '\u200b' || c == '\ufeff' {
				return -1
			}
			return c
		}, s)
	case KindTrimPrefix:
		for strings.HasPrefix(s, r.Value) {
			s = s[len(r.Value):]
		}
	case KindTrimSuffix:
		for strings.HasSuffix(s, r.Value) {
			s = s[:len(s)-len(r.Value)]
		}
	case KindRemove:
		for strings.Contains(s, r.Value) {
			s = strings.ReplaceAll(s, r.Value, "")
		}
	case KindAlias:
		if s == r.Value {
			return r.To
		}
	}
	return s
}

// Policy is an ordered list of rules turning a raw region name into the
// canonical join key. The zero value and a nil *Policy both leave names
// unchanged.
type Policy struct {
	name       string
	rules      []Rule
	aliasBytes int
}

// New validates rules and returns a policy applying them in order.
func New(name string, rules ...Rule) (*Policy, error) {
	aliases := make(map[string]string)
	for i, r := range rules {
		switch r.Kind {
		case KindNFC, KindStripSpace:
		case KindTrimPrefix, KindTrimSuffix, KindRemove:
			if r.Value == "" {
				return nil, fmt.Errorf("rule %d (%s): empty value", i, r.Kind)
			}
		case KindAlias:
			if r.Value == "" || r.To == "" {
				return nil, fmt.Errorf("rule %d (alias): both value and to are required", i)
			}
			if r.Value == r.To {
				return nil, fmt.Errorf("rule %d (alias): %q maps to itself", i, r.Value)
			}
			aliases[r.Value] = r.To
		default:
			return nil, fmt.Errorf("rule %d: unknown kind %q", i, r.Kind)
		}
	}

	for from := range aliases {
		seen := map[string]bool{from: true}
		for cur, ok := aliases[from]; ok; cur, ok = aliases[cur] {
			if seen[cur] {
				return nil, fmt.Errorf("alias cycle through %q", from)
			}
			seen[cur] = true
		}
	}

	p := &Policy{name: name, rules: append([]Rule(nil), rules...)}
	for _, r := range rules {
		if r.Kind == KindAlias {
			p.aliasBytes += len(r.To)
		}
	}
	for _, r := range rules {
		if r.Kind != KindAlias {
			continue
		}
		if _, ok := p.settle(r.To); !ok {
			return nil, fmt.Errorf("alias %q -> %q never settles", r.Value, r.To)
		}
	}
	return p, nil
}

// MustNew is like New but panics on invalid rules. Used for built-in presets.
func MustNew(name string, rules ...Rule) *Policy {
	p, err := New(name, rules...)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the policy's name, for logs and status output.
func (p *Policy) Name() string {
	if p == nil || p.name == "" {
		return "none"
	}
	return p.name
}

// Rules returns a copy of the policy's rules.
func (p *Policy) Rules() []Rule {
	if p == nil {
		return nil
	}
	return append([]Rule(nil), p.rules...)
}

// With returns a new policy with extra rules appended.
func (p *Policy) With(rules ...Rule) (*Policy, error) {
	return New(p.Name(), append(p.Rules(), rules...)...)
}

// Normalize applies the rules in order until the name stops changing, so
// Normalize(Normalize(s)) == Normalize(s).
func (p *Policy) Normalize(s string) string {
	if p == nil || len(p.rules) == 0 {
		return s
	}
	s, _ = p.settle(s)
	return s
}

func (p *Policy) settle(s string) (string, bool) {
	limit := len(s) + p.aliasBytes + len(p.rules) + 1
	for i := 0; i < limit; i++ {
		next := s
		for _, r := range p.rules {
			next = r.apply(next)
		}
		if next == s {
			return s, true
		}
		s = next
	}
	return s, false
}
