// Package indexname maps caller-supplied logical index names to engine-legal physical names.
//
// Rules are checked against the prefixed, lowercased name and every violation is
// reported, so callers can surface all problems at once:
//   - an empty or blank logical name maps to "default" under the prefix;
//   - the name cannot start with '-' or '_';
//   - only letters, digits and '-' are allowed;
//   - the name cannot exceed 255 bytes (UTF-8);
//   - the name cannot consist of dots and digits only.
package indexname

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kailas-cloud/esmemory/internal/domain"
)

// MaxLength is the maximum physical name length in bytes.
const MaxLength = 255

// Violation messages.
const (
	ErrMsgStart     = "an index name cannot start with a hyphen (-) or underscore (_)"
	ErrMsgCharset   = "an index name can only contain letters, digits, and hyphens (-)"
	ErrMsgTooLong   = "an index name cannot be longer than 255 bytes"
	ErrMsgDotsOrNum = "an index name cannot consist only of dots and numbers"
)

// InvalidNameError lists every rule a name violated. It unwraps to domain.ErrInvalidIndexName.
type InvalidNameError struct {
	Name   string
	Errors []string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("%s %q: %s", domain.ErrInvalidIndexName.Error(), e.Name, strings.Join(e.Errors, "; "))
}

func (e *InvalidNameError) Unwrap() error { return domain.ErrInvalidIndexName }

// Result is the outcome of a non-failing validation.
type Result struct {
	Name   string   // physical name, empty when invalid
	Errors []string // violated rules, empty when valid
}

// OK reports whether the name is valid.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Codec converts logical names to physical names under an optional tenant prefix.
// A name that already starts with the prefix is kept as is so that physical names
// normalize to themselves; "logs" and "km-logs" therefore share the index "km-logs".
type Codec struct {
	prefix string
}

// New creates a codec. The prefix is lowercased and prepended to every physical name.
func New(prefix string) Codec {
	return Codec{prefix: strings.ToLower(prefix)}
}

// Prefix returns the configured (lowercased) prefix.
func (c Codec) Prefix() string { return c.prefix }

// Validate converts name without failing; Result.Errors lists every violation.
func (c Codec) Validate(name string) Result {
	var physical string
	switch lower := strings.ToLower(name); {
	case strings.TrimSpace(name) == "":
		physical = c.prefix + domain.DefaultIndexName
	case strings.HasPrefix(lower, c.prefix):
		physical = lower
	default:
		physical = c.prefix + lower
	}

	if errs := check(physical); len(errs) > 0 {
		return Result{Errors: errs}
	}
	return Result{Name: physical}
}

// Normalize converts name or returns an *InvalidNameError listing every violation.
func (c Codec) Normalize(name string) (string, error) {
	res := c.Validate(name)
	if !res.OK() {
		return "", &InvalidNameError{Name: name, Errors: res.Errors}
	}
	return res.Name, nil
}

// Normalize converts name without a prefix.
func Normalize(name string) (string, error) {
	return Codec{}.Normalize(name)
}

func check(name string) []string {
	var errs []string

	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, "_") {
		errs = append(errs, ErrMsgStart)
	}

	if strings.IndexFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	}) >= 0 {
		errs = append(errs, ErrMsgCharset)
	}

	if len(name) > MaxLength {
		errs = append(errs, ErrMsgTooLong)
	}

	if strings.IndexFunc(name, func(r rune) bool {
		return r != '.' && !unicode.IsDigit(r)
	}) < 0 {
		errs = append(errs, ErrMsgDotsOrNum)
	}

	return errs
}
