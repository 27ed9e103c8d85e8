package indexname

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/esmemory/internal/domain"
)

func TestNormalize_GoodNames(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "default"},
		{"   ", "default"},
		{"nondefault", "nondefault"},
		{"WithUppercase", "withuppercase"},
		{"With-Dashes", "with-dashes"},
		{"123numberfirst", "123numberfirst"},
		{"Ünïcode", "ünïcode"},
	}
	for _, tc := range tests {
		got, err := Normalize(tc.in)
		if err != nil {
			t.Errorf("Normalize(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalize_BadNames(t *testing.T) {
	tests := []struct {
		in        string
		errCount  int
		firstRule string
	}{
		{"-test", 1, ErrMsgStart},
		{"test_", 1, ErrMsgCharset},
		{"test space", 1, ErrMsgCharset},
		{"test/slash", 1, ErrMsgCharset},
		{"test\\backslash", 1, ErrMsgCharset},
		{"test.dot", 1, ErrMsgCharset},
		{"test:colon", 1, ErrMsgCharset},
		{"test*asterisk", 1, ErrMsgCharset},
		{"test<less", 1, ErrMsgCharset},
		{"test>greater", 1, ErrMsgCharset},
		{"test|pipe", 1, ErrMsgCharset},
		{"test?question", 1, ErrMsgCharset},
		{"test\"quote", 1, ErrMsgCharset},
		{"test'quote", 1, ErrMsgCharset},
		{"test`backtick", 1, ErrMsgCharset},
		{"test~tilde", 1, ErrMsgCharset},
		{"test!exclamation", 1, ErrMsgCharset},
		{"123", 1, ErrMsgDotsOrNum},
		{".", 2, ErrMsgCharset},
		{"..", 2, ErrMsgCharset},
		{"1.2.3", 2, ErrMsgCharset},
		{"_test", 2, ErrMsgStart},
	}
	for _, tc := range tests {
		_, err := Normalize(tc.in)
		var nameErr *InvalidNameError
		if !errors.As(err, &nameErr) {
			t.Errorf("Normalize(%q): expected *InvalidNameError, got %v", tc.in, err)
			continue
		}
		if len(nameErr.Errors) != tc.errCount {
			t.Errorf("Normalize(%q): %d errors %v, want %d", tc.in, len(nameErr.Errors), nameErr.Errors, tc.errCount)
			continue
		}
		if nameErr.Errors[0] != tc.firstRule {
			t.Errorf("Normalize(%q): first error %q, want %q", tc.in, nameErr.Errors[0], tc.firstRule)
		}
		if !errors.Is(err, domain.ErrInvalidIndexName) {
			t.Errorf("Normalize(%q): error must unwrap to ErrInvalidIndexName", tc.in)
		}
	}
}

func TestNormalize_TooLong(t *testing.T) {
	_, err := Normalize(strings.Repeat("a", 256))
	var nameErr *InvalidNameError
	if !errors.As(err, &nameErr) {
		t.Fatalf("expected *InvalidNameError, got %v", err)
	}
	if len(nameErr.Errors) != 1 || nameErr.Errors[0] != ErrMsgTooLong {
		t.Fatalf("errors = %v", nameErr.Errors)
	}

	if _, err := Normalize(strings.Repeat("a", 255)); err != nil {
		t.Fatalf("255 bytes must pass: %v", err)
	}
}

func TestNormalize_ErrorMessageListsAllRules(t *testing.T) {
	_, err := Normalize("_a.b")
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, ErrMsgStart) || !strings.Contains(msg, ErrMsgCharset) {
		t.Fatalf("message misses rules: %s", msg)
	}
}

func TestValidate_AgreesWithNormalize(t *testing.T) {
	names := []string{"", "ok", "-bad", "_bad", "a.b", "1.2", strings.Repeat("x", 300), "Mixed-Case"}
	for _, n := range names {
		res := Codec{}.Validate(n)
		got, err := Normalize(n)
		if res.OK() != (err == nil) {
			t.Errorf("%q: Validate ok=%v, Normalize err=%v", n, res.OK(), err)
		}
		if res.OK() && res.Name != got {
			t.Errorf("%q: Validate name %q, Normalize %q", n, res.Name, got)
		}
		if !res.OK() && res.Name != "" {
			t.Errorf("%q: invalid result must not carry a name", n)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	codecs := []Codec{New(""), New("Tenant1-")}
	names := []string{"", "Docs", "with-dash", "123abc"}
	for _, c := range codecs {
		for _, n := range names {
			first, err := c.Normalize(n)
			if err != nil {
				t.Fatalf("prefix %q, name %q: %v", c.Prefix(), n, err)
			}
			second, err := c.Normalize(first)
			if err != nil {
				t.Fatalf("prefix %q, renormalize %q: %v", c.Prefix(), first, err)
			}
			if first != second {
				t.Errorf("prefix %q: %q -> %q -> %q", c.Prefix(), n, first, second)
			}
		}
	}
}

func TestCodec_Prefix(t *testing.T) {
	c := New("KM-")
	if c.Prefix() != "km-" {
		t.Fatalf("prefix = %q", c.Prefix())
	}

	got, err := c.Normalize("Notes")
	if err != nil || got != "km-notes" {
		t.Fatalf("Normalize = %q, %v", got, err)
	}

	got, err = c.Normalize("")
	if err != nil || got != "km-default" {
		t.Fatalf("empty name = %q, %v", got, err)
	}

	// the default name always gets the prefix, even when it happens to start with it
	de := New("de")
	got, err = de.Normalize("")
	if err != nil || got != "dedefault" {
		t.Fatalf("empty name under prefix de = %q, %v", got, err)
	}
	if again, _ := de.Normalize(got); again != got {
		t.Errorf("renormalize %q = %q", got, again)
	}

	// physical names map to themselves, so a prefixed logical name shares the index
	for _, n := range []string{"logs", "KM-Logs"} {
		if got, err := c.Normalize(n); err != nil || got != "km-logs" {
			t.Errorf("Normalize(%q) = %q, %v", n, got, err)
		}
	}

	bad := New("_tenant")
	if _, err := bad.Normalize("x"); !errors.Is(err, domain.ErrInvalidIndexName) {
		t.Fatalf("invalid prefix must fail validation, got %v", err)
	}
}
