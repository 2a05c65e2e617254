package account

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// PasswordPattern validates new passwords against the configured expression.
// The expression is shared with the HTML form's pattern attribute, so it may
// use lookaheads (the default one does); regexp2 covers that syntax where
// the standard library's RE2 cannot. Matching is anchored at the start, like
// the form attribute.
type PasswordPattern struct {
	Raw  string
	Help string
	re   *regexp2.Regexp
}

func CompilePattern(pattern, help string) (*PasswordPattern, error) {
	re, err := regexp2.Compile(`\A(?:`+pattern+`)`, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("password pattern: %w", err)
	}
	return &PasswordPattern{Raw: pattern, Help: help, re: re}, nil
}

func (p *PasswordPattern) Match(password string) bool {
	ok, err := p.re.MatchString(password)
	return err == nil && ok
}
