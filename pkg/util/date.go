package util

import (
	"strings"
	"time"
)

// layoutTokens is ordered so that YYYY is replaced before YY.
var layoutTokens = []struct{ token, layout string }{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"hh", "15"},
	{"mm", "04"},
	{"ss", "05"},
}

// FormatTime formats t using a template with placeholders
// (YYYY, YY, MM, DD, hh, mm, ss). The zero time formats as "".
//
//	FormatTime(t, "YYYY-MM-DD hh:mm") // "2023-11-10 00:00"
func FormatTime(t time.Time, tpl string) string {
	if t.IsZero() {
		return ""
	}
	layout := tpl
	for _, r := range layoutTokens {
		layout = strings.ReplaceAll(layout, r.token, r.layout)
	}
	return t.Format(layout)
}
