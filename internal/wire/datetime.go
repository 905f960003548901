package wire

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Wire-format layouts for the three time-bearing FieldTypes. These match the
// source's DFMT/TFMT/DTFMT constants one-for-one.
const (
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04:05"
	TimestampLayout = DateLayout + "T" + TimeLayout
)

// DateTime wraps time.Time for the Date, Time, and Timestamp FieldTypes. A
// zero-value DateTime (IsZero true) represents the wire-format null.
type DateTime struct {
	time.Time
}

// NewDateTime builds a DateTime from a standard library value.
func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t}
}

// DtToStr renders a DateTime using the given layout, or "" for the zero
// value (mirroring the source's `dt.strftime(fmt) if dt else None`).
func DtToStr(dt DateTime, layout string) string {
	if dt.IsZero() {
		return ""
	}
	return dt.Format(layout)
}

// StrToDt parses a wire-format string using the given layout. An empty
// string yields the zero DateTime and no error, mirroring the source's
// `strptime(s, fmt) if s else None`.
func StrToDt(s string, layout string) (DateTime, error) {
	if s == "" {
		return DateTime{}, nil
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return DateTime{}, fmt.Errorf("wire: invalid datetime %q for layout %q: %w", s, layout, err)
	}
	return DateTime{Time: t}, nil
}

// Duration wraps a calendar-aware span for the Interval FieldType. Unlike
// time.Duration it carries years/months/weeks/days separately from the
// sub-day remainder, because ISO-8601 durations are calendar arithmetic, not
// fixed nanosecond counts (a P1M span is not always the same number of
// seconds).
type Duration struct {
	Years, Months, Weeks, Days int
	Sub                        time.Duration
}

// Approx collapses the duration to a fixed time.Duration using 365.25-day
// years, 30-day months, and 7-day weeks. Used wherever a fixed-width
// duration is required (TimeChunker's chunk-schedule lookup); exact
// calendar arithmetic is available through AddTo, which TimeChunker does
// not use (its windows are fixed time.Duration steps).
func (d Duration) Approx() time.Duration {
	days := float64(d.Years)*365.25 + float64(d.Months)*30 + float64(d.Weeks)*7 + float64(d.Days)
	return time.Duration(days*24*float64(time.Hour)) + d.Sub
}

// AddTo adds the duration to t using calendar-correct arithmetic for the
// years/months/days components and fixed arithmetic for the remainder.
func (d Duration) AddTo(t time.Time) time.Time {
	t = t.AddDate(d.Years, d.Months, d.Weeks*7+d.Days)
	return t.Add(d.Sub)
}

var durationPattern = regexp.MustCompile(
	`^P` +
		`(?:(\d+)Y)?` +
		`(?:(\d+)M)?` +
		`(?:(\d+)W)?` +
		`(?:(\d+)D)?` +
		`(?:T` +
		`(?:(\d+)H)?` +
		`(?:(\d+)M)?` +
		`(?:(\d+(?:\.\d+)?)S)?` +
		`)?$`,
)

// StrToTd parses an ISO-8601 duration string such as "P1Y2M10DT2H30M" into a
// Duration. An empty string yields the zero Duration.
func StrToTd(s string) (Duration, error) {
	if s == "" {
		return Duration{}, nil
	}
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return Duration{}, fmt.Errorf("wire: invalid ISO-8601 duration %q", s)
	}
	if s == "P" {
		return Duration{}, fmt.Errorf("wire: invalid ISO-8601 duration %q", s)
	}
	atoi := func(g string) int {
		if g == "" {
			return 0
		}
		n, _ := strconv.Atoi(g)
		return n
	}
	var d Duration
	d.Years = atoi(m[1])
	d.Months = atoi(m[2])
	d.Weeks = atoi(m[3])
	d.Days = atoi(m[4])
	hours := atoi(m[5])
	minutes := atoi(m[6])
	var seconds float64
	if m[7] != "" {
		seconds, _ = strconv.ParseFloat(m[7], 64)
	}
	d.Sub = time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute +
		time.Duration(seconds*float64(time.Second))
	return d, nil
}

// TdToStr renders a Duration as an ISO-8601 string. The zero Duration
// renders as "PT0S" rather than "" — durations, unlike DateTimes, have no
// wire-format null representation in this spec's templates (a resolution
// field is always present).
func TdToStr(d Duration) string {
	var b strings.Builder
	b.WriteByte('P')
	if d.Years > 0 {
		fmt.Fprintf(&b, "%dY", d.Years)
	}
	if d.Months > 0 {
		fmt.Fprintf(&b, "%dM", d.Months)
	}
	if d.Weeks > 0 {
		fmt.Fprintf(&b, "%dW", d.Weeks)
	}
	if d.Days > 0 {
		fmt.Fprintf(&b, "%dD", d.Days)
	}
	if d.Sub > 0 {
		b.WriteByte('T')
		h := d.Sub / time.Hour
		rem := d.Sub % time.Hour
		m := rem / time.Minute
		rem = rem % time.Minute
		sec := rem.Seconds()
		if h > 0 {
			fmt.Fprintf(&b, "%dH", h)
		}
		if m > 0 {
			fmt.Fprintf(&b, "%dM", m)
		}
		if sec > 0 {
			fmt.Fprintf(&b, "%gS", sec)
		}
	}
	if b.Len() == 1 {
		return "PT0S"
	}
	return b.String()
}
