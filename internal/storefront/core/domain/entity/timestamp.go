package entity

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// UnknownTime is what a Timestamp renders as when the backend sent nothing
// usable.
const UnknownTime = "-"

// zone-less layouts are read in the local zone.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

var months = map[string]time.Month{
	"JANUARY": time.January, "FEBRUARY": time.February, "MARCH": time.March,
	"APRIL": time.April, "MAY": time.May, "JUNE": time.June,
	"JULY": time.July, "AUGUST": time.August, "SEPTEMBER": time.September,
	"OCTOBER": time.October, "NOVEMBER": time.November, "DECEMBER": time.December,
}

// Timestamp is a creation time that the order backend may serialize as epoch
// seconds+nanos, an ISO string, epoch millis, or a structured date. Decoding
// never fails: unrecognized input yields Valid == false.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, Valid: true}
}

// DateOnly renders YYYY-MM-DD in local time, or UnknownTime.
func (ts Timestamp) DateOnly() string {
	if !ts.Valid {
		return UnknownTime
	}
	return ts.Time.Local().Format("2006-01-02")
}

// TimeOnly renders HH:MM in local time, or "" when unknown.
func (ts Timestamp) TimeOnly() string {
	if !ts.Valid {
		return ""
	}
	return ts.Time.Local().Format("15:04")
}

func (ts Timestamp) String() string {
	if !ts.Valid {
		return UnknownTime
	}
	return ts.DateOnly() + " " + ts.TimeOnly()
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339Nano))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	t, ok := ParseTimestamp(data)
	*ts = Timestamp{Time: t, Valid: ok}
	return nil
}

// ParseTimestamp interprets raw JSON in any of the shapes the order backend is
// known to emit.
func ParseTimestamp(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return time.Time{}, false
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, false
		}
		return parseTimeString(s)
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return time.Time{}, false
		}
		return parseTimeObject(obj)
	case '[':
		var parts []float64
		if err := json.Unmarshal(raw, &parts); err != nil {
			return time.Time{}, false
		}
		return parseTimeArray(parts)
	case 'n', 't', 'f':
		return time.Time{}, false
	default:
		var ms float64
		if err := json.Unmarshal(raw, &ms); err != nil || math.IsNaN(ms) || math.IsInf(ms, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)), true
	}
}

func parseTimeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseTimeObject(obj map[string]json.RawMessage) (time.Time, bool) {
	// Mongo extended JSON wraps the value.
	if inner, ok := obj["$date"]; ok {
		var long map[string]string
		if json.Unmarshal(inner, &long) == nil {
			if v, ok := long["$numberLong"]; ok {
				return ParseTimestamp(json.RawMessage(v))
			}
		}
		return ParseTimestamp(inner)
	}

	if sec, ok := firstNumber(obj, "seconds", "_seconds", "epochSecond"); ok {
		nanos, _ := firstNumber(obj, "nanos", "_nanoseconds", "nano")
		return time.Unix(int64(sec), int64(nanos)), true
	}

	year, ok := firstNumber(obj, "year")
	if !ok {
		return time.Time{}, false
	}
	month, ok := monthOf(obj)
	if !ok {
		return time.Time{}, false
	}
	day, ok := firstNumber(obj, "dayOfMonth", "day")
	if !ok {
		return time.Time{}, false
	}
	hour, _ := firstNumber(obj, "hour")
	minute, _ := firstNumber(obj, "minute")
	second, _ := firstNumber(obj, "second")
	nano, _ := firstNumber(obj, "nano")

	return time.Date(int(year), month, int(day), int(hour), int(minute), int(second), int(nano), time.Local), true
}

func parseTimeArray(parts []float64) (time.Time, bool) {
	if len(parts) < 3 {
		return time.Time{}, false
	}
	field := func(i int) int {
		if i < len(parts) {
			return int(parts[i])
		}
		return 0
	}
	month := field(1)
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	return time.Date(field(0), time.Month(month), field(2), field(3), field(4), field(5), field(6), time.Local), true
}

func monthOf(obj map[string]json.RawMessage) (time.Month, bool) {
	if m, ok := firstNumber(obj, "monthValue", "month"); ok {
		if m < 1 || m > 12 {
			return 0, false
		}
		return time.Month(m), true
	}
	raw, ok := obj["month"]
	if !ok {
		return 0, false
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return 0, false
	}
	m, ok := months[strings.ToUpper(name)]
	return m, ok
}

func firstNumber(obj map[string]json.RawMessage, keys ...string) (float64, bool) {
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			return n, true
		}
	}
	return 0, false
}
