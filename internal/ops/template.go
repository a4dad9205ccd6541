package ops

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ponpaku/creators-file-manager/pkg/types"
)

// templateContext carries the values a rendered template can reference.
type templateContext struct {
	capture  *time.Time
	executed *time.Time
	sequence int
	orig     string
	ext      string
}

// TemplateTags lists the placeholders the rename template accepts.
func TemplateTags() []types.TemplateTag {
	return []types.TemplateTag{
		{Token: "{capture_date:YYYYMMDD}", Label: "Capture date", Description: "Date part of the capture datetime"},
		{Token: "{capture_time:HHmmss}", Label: "Capture time", Description: "Time part of the capture datetime"},
		{Token: "{exec_date:YYYYMMDD}", Label: "Run date", Description: "Date the operation was executed"},
		{Token: "{exec_time:HHmmss}", Label: "Run time", Description: "Time the operation was executed"},
		{Token: "{seq:3}", Label: "Sequence", Description: "Zero-padded counter in plan order"},
		{Token: "{orig}", Label: "Original name", Description: "Original filename without extension"},
		{Token: "{ext}", Label: "Extension", Description: "Lowercase extension"},
		{Token: "{year}", Label: "Year", Description: "Four-digit year of the datetime source"},
		{Token: "{month}", Label: "Month", Description: "Two-digit month of the datetime source"},
		{Token: "{day}", Label: "Day", Description: "Two-digit day of the datetime source"},
		{Token: "{hour}", Label: "Hour", Description: "Two-digit hour of the datetime source"},
		{Token: "{minute}", Label: "Minute", Description: "Two-digit minute of the datetime source"},
		{Token: "{second}", Label: "Second", Description: "Two-digit second of the datetime source"},
	}
}

// templateNeedsCapture reports whether the template references the capture
// datetime and therefore requires a resolvable timestamp.
func templateNeedsCapture(template string) bool {
	for _, tag := range []string{"{capture_date", "{capture_time", "{year", "{month", "{day", "{hour", "{minute", "{second"} {
		if strings.Contains(template, tag) {
			return true
		}
	}
	return false
}

func templateUsesExt(template string) bool {
	return strings.Contains(template, "{ext}")
}

// renderTemplate expands a template of literal runs and {tag[:fmt]} tokens.
func renderTemplate(template string, ctx templateContext) (string, error) {
	var out strings.Builder
	runes := []rune(template)
	i := 0
	for i < len(runes) {
		if runes[i] != '{' {
			out.WriteRune(runes[i])
			i++
			continue
		}
		end := i + 1
		for end < len(runes) && runes[end] != '}' {
			end++
		}
		if end >= len(runes) {
			return "", fmt.Errorf("unclosed '{' in template")
		}
		replacement, err := resolveToken(string(runes[i+1:end]), ctx)
		if err != nil {
			return "", err
		}
		out.WriteString(replacement)
		i = end + 1
	}
	return out.String(), nil
}

func resolveToken(token string, ctx templateContext) (string, error) {
	key, arg := token, ""
	if idx := strings.IndexByte(token, ':'); idx >= 0 {
		key, arg = token[:idx], token[idx+1:]
	}

	needCapture := func(tag string) (*time.Time, error) {
		if ctx.capture == nil {
			return nil, fmt.Errorf("{%s} requires a capture datetime", tag)
		}
		return ctx.capture, nil
	}

	switch key {
	case "capture_date":
		t, err := needCapture(key)
		if err != nil {
			return "", err
		}
		return t.Format(datetimeLayout(defaultArg(arg, "YYYYMMDD"))), nil
	case "capture_time":
		t, err := needCapture(key)
		if err != nil {
			return "", err
		}
		return t.Format(datetimeLayout(defaultArg(arg, "HHmmss"))), nil
	case "exec_date":
		if ctx.executed == nil {
			return "", fmt.Errorf("{exec_date} requires an execution datetime")
		}
		return ctx.executed.Format(datetimeLayout(defaultArg(arg, "YYYYMMDD"))), nil
	case "exec_time":
		if ctx.executed == nil {
			return "", fmt.Errorf("{exec_time} requires an execution datetime")
		}
		return ctx.executed.Format(datetimeLayout(defaultArg(arg, "HHmmss"))), nil
	case "seq":
		width, err := strconv.Atoi(defaultArg(arg, "1"))
		if err != nil || width < 1 {
			return "", fmt.Errorf("seq width must be a positive integer")
		}
		return fmt.Sprintf("%0*d", width, ctx.sequence), nil
	case "orig", "original":
		return ctx.orig, nil
	case "ext":
		return ctx.ext, nil
	case "year":
		t, err := needCapture(key)
		if err != nil {
			return "", err
		}
		return t.Format("2006"), nil
	case "month":
		t, err := needCapture(key)
		if err != nil {
			return "", err
		}
		return t.Format("01"), nil
	case "day":
		t, err := needCapture(key)
		if err != nil {
			return "", err
		}
		return t.Format("02"), nil
	case "hour":
		t, err := needCapture(key)
		if err != nil {
			return "", err
		}
		return t.Format("15"), nil
	case "minute":
		t, err := needCapture(key)
		if err != nil {
			return "", err
		}
		return t.Format("04"), nil
	case "second":
		t, err := needCapture(key)
		if err != nil {
			return "", err
		}
		return t.Format("05"), nil
	default:
		return "", fmt.Errorf("unknown placeholder {%s}", token)
	}
}

func defaultArg(arg, fallback string) string {
	if arg == "" {
		return fallback
	}
	return arg
}

// datetimeLayout converts the documented YYYY/MM/DD/HH/mm/ss pattern tokens
// to a Go time layout. Unknown letters pass through verbatim.
func datetimeLayout(pattern string) string {
	replacer := strings.NewReplacer(
		"YYYY", "2006",
		"MM", "01",
		"DD", "02",
		"HH", "15",
		"mm", "04",
		"ss", "05",
	)
	return replacer.Replace(pattern)
}
