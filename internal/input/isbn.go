package input

import "strings"

// CanonicalISBN strips separators and uppercases a check-digit X.
func CanonicalISBN(isbn string) string {
	var b strings.Builder
	for _, r := range isbn {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteByte('X')
		}
	}
	return b.String()
}

// ValidISBN validates the check digit of an ISBN-10 or ISBN-13.
func ValidISBN(isbn string) bool {
	s := CanonicalISBN(isbn)
	switch len(s) {
	case 10:
		sum := 0
		for i, r := range s {
			v := 0
			if r == 'X' {
				if i != 9 {
					return false
				}
				v = 10
			} else {
				v = int(r - '0')
			}
			sum += (10 - i) * v
		}
		return sum%11 == 0
	case 13:
		if strings.ContainsRune(s, 'X') {
			return false
		}
		sum := 0
		for i, r := range s {
			v := int(r - '0')
			if i%2 == 1 {
				v *= 3
			}
			sum += v
		}
		return sum%10 == 0
	}
	return false
}

// registrant length by the first two digits after the group element,
// per the common allocation pattern shared by the major agencies.
func registrantLen(rest string) int {
	if len(rest) < 2 {
		return 0
	}
	twoDigits := int(rest[0]-'0')*10 + int(rest[1]-'0')
	switch {
	case twoDigits <= 19:
		return 2
	case twoDigits <= 69:
		return 3
	case twoDigits <= 84:
		return 4
	case twoDigits <= 89:
		return 5
	case twoDigits <= 94:
		return 6
	default:
		return 7
	}
}

// MaskISBN formats an ISBN-13 into its hyphenated display form
// (prefix-group-registrant-publication-check). Inputs it cannot
// hyphenate confidently are returned in canonical unhyphenated form.
func MaskISBN(isbn string) string {
	s := CanonicalISBN(isbn)
	if len(s) != 13 || !ValidISBN(s) {
		return s
	}
	prefix, body, check := s[:3], s[3:12], s[12:]
	// Single-digit registration groups cover the bulk of real ISBNs;
	// longer groups fall back to the unhyphenated form.
	group := body[:1]
	rest := body[1:]
	rl := registrantLen(rest)
	if rl == 0 || rl >= len(rest) {
		return s
	}
	return prefix + "-" + group + "-" + rest[:rl] + "-" + rest[rl:] + "-" + check
}

// IsIranianISBN reports whether the ISBN belongs to the Iranian
// registration groups (978-600, 978-622, or the 964 ISBN-10 group).
func IsIranianISBN(isbn string) bool {
	s := CanonicalISBN(isbn)
	switch {
	case len(s) == 13:
		return strings.HasPrefix(s, "978600") || strings.HasPrefix(s, "978622") || strings.HasPrefix(s, "978964")
	case len(s) == 10:
		return strings.HasPrefix(s, "964") || strings.HasPrefix(s, "600")
	}
	return false
}
