// Package experience estimates years of professional experience from the
// employment date ranges that appear in resume text.
//
// The estimate is a rough bound, not a count of employed months: it is the
// span from the earliest range start to the latest range end, so gaps between
// jobs inside that envelope are counted and overlapping jobs are not summed.
package experience

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)(?:\.|\b)`
	dashPattern  = `\s*(?:-|\x{2013}|\x{2014}|to)\s*`
	nowPattern   = `(present|current|now|today)`

	minYear = 1900
	maxYear = 2100
)

var (
	// Month Year - (Present | Month [Year])
	monthRangeRe = regexp.MustCompile(`(?i)\b` + monthPattern + `\s+(\d{4})` + dashPattern +
		`(?:` + nowPattern + `\b|` + monthPattern + `(?:\s+(\d{4}))?)`)
	// Year - (Year | Present)
	yearRangeRe = regexp.MustCompile(`(?i)\b(\d{4})` + dashPattern + `(?:(\d{4})|` + nowPattern + `)\b`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// Range is one employment period found in text.
type Range struct {
	Start time.Time
	End   time.Time
}

// Estimate returns the years between the earliest start and the latest end of
// all date ranges found in text, rounded to one decimal. It returns 0 when no
// valid range is present. now resolves "Present"/"Current".
func Estimate(text string, now time.Time) float64 {
	spans := Ranges(text, now)
	if len(spans) == 0 {
		return 0
	}

	earliest, latest := spans[0].Start, spans[0].End
	for _, s := range spans[1:] {
		if s.Start.Before(earliest) {
			earliest = s.Start
		}
		if s.End.After(latest) {
			latest = s.End
		}
	}

	total := monthsBetween(earliest, latest)
	return math.Round(float64(total)/12*10) / 10
}

// Ranges returns the valid date ranges in text in match order.
func Ranges(text string, now time.Time) []Range {
	now = now.UTC()
	var out []Range

	masked := monthRangeRe.ReplaceAllStringFunc(text, func(m string) string {
		if s, ok := parseMonthRange(m, now); ok {
			out = append(out, s)
		}
		return strings.Repeat(" ", len(m))
	})

	for _, g := range yearRangeRe.FindAllStringSubmatch(masked, -1) {
		start, ok := yearStart(g[1])
		if !ok {
			continue
		}
		var end time.Time
		if g[3] != "" {
			end = now
		} else if end, ok = yearStart(g[2]); !ok {
			continue
		}
		if end.Before(start) {
			continue
		}
		out = append(out, Range{Start: start, End: end})
	}
	return out
}

func parseMonthRange(m string, now time.Time) (Range, bool) {
	g := monthRangeRe.FindStringSubmatch(m)
	if g == nil {
		return Range{}, false
	}
	startYear, ok := parseYear(g[2])
	if !ok {
		return Range{}, false
	}
	start := firstOfMonth(startYear, monthOf(g[1]))

	var end time.Time
	switch {
	case g[3] != "":
		end = now
	default:
		endYear := startYear
		if g[5] != "" {
			if endYear, ok = parseYear(g[5]); !ok {
				return Range{}, false
			}
		}
		end = firstOfMonth(endYear, monthOf(g[4]))
	}
	if end.Before(start) {
		return Range{}, false
	}
	return Range{Start: start, End: end}, true
}

func yearStart(raw string) (time.Time, bool) {
	y, ok := parseYear(raw)
	if !ok {
		return time.Time{}, false
	}
	return firstOfMonth(y, time.January), true
}

func parseYear(raw string) (int, bool) {
	y, err := strconv.Atoi(raw)
	if err != nil || y < minYear || y > maxYear {
		return 0, false
	}
	return y, true
}

func monthOf(raw string) time.Month {
	key := strings.ToLower(raw)
	if len(key) > 3 {
		key = key[:3]
	}
	if m, ok := months[key]; ok {
		return m
	}
	return time.January
}

func firstOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

func monthsBetween(start, end time.Time) int {
	n := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if n < 0 {
		return 0
	}
	return n
}
