package market

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ParseBars extracts the daily-bar array from a raw series payload. The
// upstreams wrap the array in script prose and routinely emit object keys
// without quotes, so the body is repaired before decoding. Any failure
// yields an empty slice; a bad payload must never fail a whole batch.
func ParseBars(body string) []Bar {
	raw, ok := extractArray(body)
	if !ok {
		return nil
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(quoteKeys(raw)), &rows); err != nil {
		return nil
	}
	bars := make([]Bar, 0, len(rows))
	for _, row := range rows {
		date := pickString(row, "day", "d", "date")
		closePx := pickFloat(row, "close", "c")
		if date == "" || closePx <= 0 {
			continue
		}
		bars = append(bars, Bar{
			Date:  dateOnly(date),
			Close: closePx,
			Open:  pickFloat(row, "open", "o"),
		})
	}
	return bars
}

// extractArray returns the widest bracketed substring, tolerating leading
// and trailing wrapper junk.
func extractArray(body string) (string, bool) {
	i := strings.Index(body, "[")
	j := strings.LastIndex(body, "]")
	if i < 0 || j <= i {
		return "", false
	}
	return body[i : j+1], true
}

// quoteKeys rewrites bare identifier keys (`day:`) into quoted form
// (`"day":`). It only touches identifiers in key position outside string
// literals, so values like "ratio: 2:1" pass through untouched.
func quoteKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/8)
	inStr := false
	esc := false
	expectKey := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			b.WriteByte(c)
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch {
		case c == '"':
			inStr = true
			expectKey = false
			b.WriteByte(c)
		case c == '{' || c == ',':
			expectKey = true
			b.WriteByte(c)
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			b.WriteByte(c)
		case expectKey && isIdentStart(c):
			j := i
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			k := j
			for k < len(s) && isSpace(s[k]) {
				k++
			}
			if k < len(s) && s[k] == ':' {
				b.WriteByte('"')
				b.WriteString(s[i:j])
				b.WriteByte('"')
			} else {
				b.WriteString(s[i:j])
			}
			i = j - 1
			expectKey = false
		default:
			expectKey = false
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// dateOnly strips a trailing time component ("2024-01-02 15:00:00").
func dateOnly(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}

func pickString(row map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func pickFloat(row map[string]any, keys ...string) float64 {
	for _, k := range keys {
		v, ok := row[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			return t
		case string:
			f, err := strconv.ParseFloat(t, 64)
			if err == nil {
				return f
			}
		}
	}
	return 0
}
