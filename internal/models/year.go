package models

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	yearRangeRe  = regexp.MustCompile(`(\d{4})\s*-\s*(\d{4})`)
	yearSingleRe = regexp.MustCompile(`(\d{4})`)
)

// YearRange is a parsed free-text year value. A single year has Start == End.
type YearRange struct {
	Start int
	End   int
}

// ParseYearRange parses free-text year values like "1967" or "1965-1970".
// Returns nil when no four-digit year is present.
func ParseYearRange(s string) *YearRange {
	y := strings.TrimSpace(s)
	if y == "" {
		return nil
	}
	if m := yearRangeRe.FindStringSubmatch(y); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		return &YearRange{Start: start, End: end}
	}
	if m := yearSingleRe.FindStringSubmatch(y); m != nil {
		year, _ := strconv.Atoi(m[1])
		return &YearRange{Start: year, End: year}
	}
	return nil
}

// yearMatchesSearch reports whether a free-text year value matches a search
// term. Besides substring matching, a numeric term matches when it falls
// inside the year range; two-digit terms are interpreted as 19xx.
func yearMatchesSearch(yearStr, searchStr string) bool {
	if yearStr == "" || searchStr == "" {
		return false
	}
	s := strings.TrimSpace(searchStr)
	y := strings.TrimSpace(yearStr)
	if strings.Contains(strings.ToLower(y), strings.ToLower(s)) {
		return true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	year := n
	if n < 100 {
		year = 1900 + n
	}
	r := ParseYearRange(y)
	return r != nil && year >= r.Start && year <= r.End
}

// MatchesSearch reports whether an entry matches a free-text search term
// against name, code, or year.
func (e Entry) MatchesSearch(q string) bool {
	if strings.TrimSpace(q) == "" {
		return true
	}
	s := strings.ToLower(strings.TrimSpace(q))
	if strings.Contains(strings.ToLower(e.Name), s) {
		return true
	}
	if strings.Contains(strings.ToLower(e.Code), s) {
		return true
	}
	return yearMatchesSearch(e.Year, q)
}
