package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reLooseClock = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})$`)
)

func trim(s string) string {
	return strings.TrimSpace(s)
}

func lower(s string) string {
	return strings.ToLower(s)
}

func collapseWhitespace(s string) string {
	return reWhitespace.ReplaceAllString(s, " ")
}

// SanitizeID trims and lowercases hex object ids.
func SanitizeID(input string) string {
	return Pipeline{trim, lower}.Apply(input)
}

// SanitizeClock pads a single-digit hour and accepts a dot separator, so
// "9:30" and "09.30" both become "09:30".
func SanitizeClock(input string) string {
	s := trim(input)
	m := reLooseClock.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	hour := m[1]
	if len(hour) == 1 {
		hour = "0" + hour
	}
	return hour + ":" + m[2]
}

func SanitizeText(input string) string {
	return Pipeline{trim, collapseWhitespace}.Apply(input)
}

// SanitizeMetadata trims keys and values and drops entries with an empty key.
func SanitizeMetadata(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		k = SanitizeText(k)
		if k == "" {
			continue
		}
		out[k] = SanitizeText(v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
