package fields

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	reISODate = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	reDotYMD  = regexp.MustCompile(`^(\d{4})\.(\d{2})\.(\d{2})$`)
	reDMY     = regexp.MustCompile(`^(\d{2})[./-](\d{2})[./-](\d{4})$`)
	reMDY     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

// NormalizeDate converts YYYY-MM-DD, YYYY.MM.DD, DD/MM/YYYY, DD.MM.YYYY,
// DD-MM-YYYY and M/D/YYYY into ISO YYYY-MM-DD. Any other shape, or a date that
// does not exist on the calendar, yields false. A trailing dot is ignored.
func NormalizeDate(input string) (string, bool) {
	raw := strings.TrimRight(strings.TrimSpace(input), ".")
	if raw == "" {
		return "", false
	}

	var y, m, d string
	switch {
	case reISODate.MatchString(raw):
		g := reISODate.FindStringSubmatch(raw)
		y, m, d = g[1], g[2], g[3]
	case reDotYMD.MatchString(raw):
		g := reDotYMD.FindStringSubmatch(raw)
		y, m, d = g[1], g[2], g[3]
	case reDMY.MatchString(raw):
		g := reDMY.FindStringSubmatch(raw)
		y, m, d = g[3], g[2], g[1]
	case reMDY.MatchString(raw):
		g := reMDY.FindStringSubmatch(raw)
		y, m, d = g[3], pad2(g[1]), pad2(g[2])
	default:
		return "", false
	}

	iso := fmt.Sprintf("%s-%s-%s", y, m, d)
	if _, err := time.Parse("2006-01-02", iso); err != nil {
		return "", false
	}
	return iso, true
}

// NormalizeDatePtr is NormalizeDate for optional values.
func NormalizeDatePtr(input *string) *string {
	if input == nil {
		return nil
	}
	if iso, ok := NormalizeDate(*input); ok {
		return &iso
	}
	return nil
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// PlausibleYear reports whether an ISO date's year lies within
// [now.Year()-1, now.Year()+2]. The window is year-granular.
func PlausibleYear(iso string, now time.Time) bool {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return false
	}
	y := t.Year()
	return y >= now.Year()-1 && y <= now.Year()+2
}
