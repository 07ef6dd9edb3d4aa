package tabular

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CellType is the best-effort inferred type of a table column.
type CellType int

const (
	TypeString CellType = iota
	TypeInt
	TypeDecimal
	TypeDate
)

func (t CellType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeDecimal:
		return "decimal"
	case TypeDate:
		return "date"
	default:
		return "string"
	}
}

// Date is a calendar date that tolerates the corpus's partial dates.
// A yearless date ("10 August") carries Year 0, a dayless one Day 0.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Compare orders dates chronologically; partial dates sort by their
// zero components, which keeps the ordering deterministic.
func (d Date) Compare(o Date) int {
	if d.Year != o.Year {
		return cmpInt(d.Year, o.Year)
	}
	if d.Month != o.Month {
		return cmpInt(int(d.Month), int(o.Month))
	}
	return cmpInt(d.Day, o.Day)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// footnoteRE matches Wikipedia-style footnote markers like [1] or [a].
var footnoteRE = regexp.MustCompile(`\[[^\]]*\]`)

// cleanCell strips footnote markers and surrounding whitespace before
// any parse attempt. The raw text is always kept alongside.
func cleanCell(s string) string {
	return strings.TrimSpace(footnoteRE.ReplaceAllString(s, ""))
}

func parseInt(s string) (int64, bool) {
	s = strings.ReplaceAll(cleanCell(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseDecimal(s string) (float64, bool) {
	s = strings.ReplaceAll(cleanCell(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

var (
	dayMonthYearRE = regexp.MustCompile(`^(\d{1,2}) ([A-Za-z]+)(?: (\d{4}))?$`)
	monthDayYearRE = regexp.MustCompile(`^([A-Za-z]+) (\d{1,2})(?:, (\d{4}))?$`)
	monthYearRE    = regexp.MustCompile(`^([A-Za-z]+) (\d{4})$`)
	isoDateRE      = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// ParseDate recognizes the date shapes that occur in encyclopedia-derived
// tables: "10 August 2021", "August 10, 2021", "10 August", "August 10",
// "August 2021" and ISO "2021-08-10". Bare years are deliberately not
// dates, so numeric columns keep their integer type.
func ParseDate(s string) (Date, bool) {
	s = cleanCell(s)

	if m := isoDateRE.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month < 1 || month > 12 || day < 1 || day > 31 {
			return Date{}, false
		}
		return Date{Year: year, Month: time.Month(month), Day: day}, true
	}

	if m := dayMonthYearRE.FindStringSubmatch(s); m != nil {
		month, ok := months[strings.ToLower(m[2])]
		if !ok {
			return Date{}, false
		}
		day, _ := strconv.Atoi(m[1])
		if day < 1 || day > 31 {
			return Date{}, false
		}
		year := 0
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		return Date{Year: year, Month: month, Day: day}, true
	}

	if m := monthDayYearRE.FindStringSubmatch(s); m != nil {
		month, ok := months[strings.ToLower(m[1])]
		if !ok {
			return Date{}, false
		}
		day, _ := strconv.Atoi(m[2])
		if day < 1 || day > 31 {
			return Date{}, false
		}
		year := 0
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		}
		return Date{Year: year, Month: month, Day: day}, true
	}

	if m := monthYearRE.FindStringSubmatch(s); m != nil {
		month, ok := months[strings.ToLower(m[1])]
		if !ok {
			return Date{}, false
		}
		year, _ := strconv.Atoi(m[2])
		return Date{Year: year, Month: month}, true
	}

	return Date{}, false
}

// inferCellType attempts integer, then decimal, then date, falling back
// to string. Empty cells are typeless and never veto a column's type.
func inferCellType(s string) CellType {
	if _, ok := parseInt(s); ok {
		return TypeInt
	}
	if _, ok := parseDecimal(s); ok {
		return TypeDecimal
	}
	if _, ok := ParseDate(s); ok {
		return TypeDate
	}
	return TypeString
}
