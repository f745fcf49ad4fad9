// File: validation.go
// Title: Validation Chain and Common Rules
// Description: Implements the Rule interface, the Chain runner and the
//              common string and numeric rules used for user-editable
//              data. Failures are reported as mCW errors carrying
//              CodeValidationFailed.
// Author: msto63 with Claude Sonnet 4.0
// Version: v0.1.0
// Created: 2026-02-04
// Modified: 2026-02-04
//
// Change History:
// - 2026-02-04 v0.1.0: Initial implementation

package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	mcwerror "github.com/msto63/mCW/foundation/core/error"
)

// Rule checks a single string value and reports the first violation
type Rule interface {
	Check(value string) error
}

// RuleFunc adapts a plain function to the Rule interface
type RuleFunc func(value string) error

// Check implements the Rule interface
func (f RuleFunc) Check(value string) error {
	return f(value)
}

// Chain runs rules in declaration order against a named field
type Chain struct {
	field string
	rules []Rule
}

// NewChain creates a validation chain for the named field
func NewChain(field string, rules ...Rule) *Chain {
	return &Chain{field: field, rules: rules}
}

// Add appends further rules to the chain
func (c *Chain) Add(rules ...Rule) *Chain {
	c.rules = append(c.rules, rules...)
	return c
}

// Validate checks the value against all rules, stopping at the first failure
func (c *Chain) Validate(value string) error {
	for _, rule := range c.rules {
		if err := rule.Check(value); err != nil {
			return mcwerror.Wrapf(err, "validation of %s failed", c.field).
				WithCode(mcwerror.CodeValidationFailed).
				WithDetail("field", c.field).
				WithDetail("value", value)
		}
	}
	return nil
}

// NotEmpty requires a value with at least one non-whitespace character
func NotEmpty() Rule {
	return RuleFunc(func(value string) error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("value must not be empty")
		}
		return nil
	})
}

// MaxLength limits the value to max runes
func MaxLength(max int) Rule {
	return RuleFunc(func(value string) error {
		if len([]rune(value)) > max {
			return fmt.Errorf("value exceeds maximum length of %d", max)
		}
		return nil
	})
}

// NoControlChars rejects values containing control characters
func NoControlChars() Rule {
	return RuleFunc(func(value string) error {
		for _, r := range value {
			if unicode.IsControl(r) {
				return fmt.Errorf("value contains control characters")
			}
		}
		return nil
	})
}

// NoneOf rejects values containing any of the given substrings
func NoneOf(forbidden ...string) Rule {
	return RuleFunc(func(value string) error {
		for _, f := range forbidden {
			if strings.Contains(value, f) {
				return fmt.Errorf("value must not contain %q", f)
			}
		}
		return nil
	})
}

// OneOf requires the value to be one of the allowed strings
func OneOf(allowed ...string) Rule {
	return RuleFunc(func(value string) error {
		for _, a := range allowed {
			if value == a {
				return nil
			}
		}
		return fmt.Errorf("value %q is not one of %s", value, strings.Join(allowed, ", "))
	})
}

// Matches requires the value to match the regular expression
func Matches(pattern *regexp.Regexp, description string) Rule {
	return RuleFunc(func(value string) error {
		if !pattern.MatchString(value) {
			return fmt.Errorf("value does not match expected format: %s", description)
		}
		return nil
	})
}
