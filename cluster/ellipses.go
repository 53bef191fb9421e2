package cluster

import (
	"strconv"
	"strings"

	"github.com/stratastore/strata/cmn"
)

const ellipsesMarker = "..."

// HasEllipses reports whether any argument contains an {A...B} pattern.
func HasEllipses(args ...string) bool {
	for _, arg := range args {
		if strings.Contains(arg, ellipsesMarker) && strings.Contains(arg, "{") {
			return true
		}
	}
	return false
}

// ExpandEllipses expands every {A...B} pattern in arg into the Cartesian
// product of its ranges, left-to-right (the leftmost range varies slowest).
// Numeric ranges use decimal integers with A <= B; alphabetic ranges use
// single ASCII letters with A <= B. Empty prefix/suffix is allowed.
func ExpandEllipses(arg string) ([]string, error) {
	open := strings.IndexByte(arg, '{')
	if open < 0 {
		return []string{arg}, nil
	}
	rel := strings.IndexByte(arg[open:], '}')
	if rel < 0 {
		return nil, cmn.NewInvalidArgError("unclosed brace in %q", arg)
	}
	closing := open + rel
	var (
		prefix = arg[:open]
		body   = arg[open+1 : closing]
		suffix = arg[closing+1:]
	)
	values, err := expandRange(body)
	if err != nil {
		return nil, err
	}
	rest, err := ExpandEllipses(suffix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(values)*len(rest))
	for _, v := range values {
		for _, r := range rest {
			out = append(out, prefix+v+r)
		}
	}
	return out, nil
}

func expandRange(body string) ([]string, error) {
	i := strings.Index(body, ellipsesMarker)
	if i < 0 {
		return nil, cmn.NewInvalidArgError("brace pattern {%s} has no %q", body, ellipsesMarker)
	}
	lo, hi := body[:i], body[i+len(ellipsesMarker):]
	if lo == "" || hi == "" {
		return nil, cmn.NewInvalidArgError("brace pattern {%s} has an empty bound", body)
	}
	if isDecimal(lo) && isDecimal(hi) {
		a, _ := strconv.Atoi(lo)
		b, _ := strconv.Atoi(hi)
		if a > b {
			return nil, cmn.NewInvalidArgError("brace pattern {%s}: %d > %d", body, a, b)
		}
		out := make([]string, 0, b-a+1)
		for v := a; v <= b; v++ {
			out = append(out, strconv.Itoa(v))
		}
		return out, nil
	}
	if len(lo) == 1 && len(hi) == 1 && isLetter(lo[0]) && isLetter(hi[0]) {
		a, b := lo[0], hi[0]
		if a > b {
			return nil, cmn.NewInvalidArgError("brace pattern {%s}: %q > %q", body, a, b)
		}
		out := make([]string, 0, int(b-a)+1)
		for v := a; v <= b; v++ {
			out = append(out, string(v))
		}
		return out, nil
	}
	return nil, cmn.NewInvalidArgError("malformed brace pattern {%s}", body)
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
