// Package nametemplate expands file name templates containing {name} and
// {name:format} tokens. Templates are operator-configured free text, so
// unrecognized tokens are left verbatim rather than treated as errors.
package nametemplate

import (
	"fmt"
	"strings"
	"time"
)

// Default pattern strings used when a template omits an explicit format
// or supplies an invalid one
const (
	DefaultDateFormat = "yyyyMMdd"
	DefaultTimeFormat = "HHmmss"
	timestampFormat   = "yyyyMMdd-HHmmss"
	counterWidth      = 3
)

// Context supplies the values tokens resolve against. It is built once
// per operation and read-only afterwards.
type Context struct {
	// Now is the wall-clock instant used by date/time/timestamp/year
	Now time.Time

	// Values maps plain token names (username, source, mediaid, ...) to
	// their resolved strings; tokens absent from the map stay verbatim
	Values map[string]string

	// Counter is the collision-avoidance sequence number
	Counter int

	// DateFormat overrides the default {date} pattern when set
	DateFormat string

	// TimeFormat overrides the default {time} pattern when set
	TimeFormat string
}

type segmentKind int

const (
	segmentLiteral segmentKind = iota
	segmentToken
)

// segment is one literal run or one token of a parsed template
type segment struct {
	kind   segmentKind
	text   string // literal text, or the raw token including braces
	name   string // token name, lowercased
	format string // token format, empty when not given
}

// Template is a parsed name template ready for repeated resolution
type Template struct {
	segments []segment
}

// Parse splits a template into literal and token segments. Parsing never
// fails: malformed brace sequences become literals.
func Parse(tmpl string) *Template {
	var segments []segment
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, segment{kind: segmentLiteral, text: literal.String()})
			literal.Reset()
		}
	}

	for i := 0; i < len(tmpl); {
		open := strings.IndexByte(tmpl[i:], '{')
		if open < 0 {
			literal.WriteString(tmpl[i:])
			break
		}
		open += i

		close := strings.IndexByte(tmpl[open:], '}')
		if close < 0 {
			// Unterminated brace: everything remaining is literal
			literal.WriteString(tmpl[i:])
			break
		}
		close += open

		literal.WriteString(tmpl[i:open])
		flush()

		raw := tmpl[open : close+1]
		body := tmpl[open+1 : close]
		name, format := body, ""
		if idx := strings.IndexByte(body, ':'); idx >= 0 {
			name, format = body[:idx], body[idx+1:]
		}

		segments = append(segments, segment{
			kind:   segmentToken,
			text:   raw,
			name:   strings.ToLower(strings.TrimSpace(name)),
			format: format,
		})

		i = close + 1
	}
	flush()

	return &Template{segments: segments}
}

// Resolve substitutes every recognized token against the context.
// Resolution is deterministic: the same context always yields the same
// string.
func (t *Template) Resolve(ctx Context) string {
	var out strings.Builder
	for _, seg := range t.segments {
		if seg.kind == segmentLiteral {
			out.WriteString(seg.text)
			continue
		}
		out.WriteString(resolveToken(seg, ctx))
	}
	return out.String()
}

// Resolve is a convenience for one-shot resolution
func Resolve(tmpl string, ctx Context) string {
	return Parse(tmpl).Resolve(ctx)
}

// HasToken reports whether the template contains the named token
func (t *Template) HasToken(name string) bool {
	name = strings.ToLower(name)
	for _, seg := range t.segments {
		if seg.kind == segmentToken && seg.name == name {
			return true
		}
	}
	return false
}

func resolveToken(seg segment, ctx Context) string {
	switch seg.name {
	case "date":
		pattern := seg.format
		if pattern == "" {
			pattern = ctx.DateFormat
		}
		return formatWithFallback(ctx.Now, pattern, DefaultDateFormat)

	case "time":
		pattern := seg.format
		if pattern == "" {
			pattern = ctx.TimeFormat
		}
		return formatWithFallback(ctx.Now, pattern, DefaultTimeFormat)

	case "timestamp":
		layout, _ := convertPattern(timestampFormat)
		return ctx.Now.Format(layout)

	case "year":
		return ctx.Now.Format("2006")

	case "counter":
		return fmt.Sprintf("%0*d", counterWidth, ctx.Counter)

	default:
		if v, ok := ctx.Values[seg.name]; ok {
			return v
		}
		// Unknown token: fail-soft, keep the raw text
		return seg.text
	}
}

// formatWithFallback formats the instant with the given pattern, falling
// back to the default pattern when the requested one is invalid
func formatWithFallback(now time.Time, pattern, fallback string) string {
	if pattern == "" {
		pattern = fallback
	}
	layout, ok := convertPattern(pattern)
	if !ok {
		layout, _ = convertPattern(fallback)
	}
	return now.Format(layout)
}

// patternTokens maps pattern-letter runs to Go reference layouts,
// ordered longest-first so greedy matching picks the right run
var patternTokens = []struct {
	pattern string
	layout  string
}{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"dd", "02"},
	{"HH", "15"},
	{"hh", "03"},
	{"mm", "04"},
	{"ss", "05"},
	{"tt", "PM"},
}

// convertPattern translates a conventional pattern-letter format
// (yyyyMMdd, HH-mm-ss, dd MMM yyyy, ...) into a Go time layout.
// Returns ok=false when the pattern contains an unrecognized letter run.
func convertPattern(pattern string) (string, bool) {
	var layout strings.Builder

	for i := 0; i < len(pattern); {
		c := pattern[i]
		if !isPatternLetter(c) {
			layout.WriteByte(c)
			i++
			continue
		}

		matched := false
		for _, tok := range patternTokens {
			if strings.HasPrefix(pattern[i:], tok.pattern) {
				layout.WriteString(tok.layout)
				i += len(tok.pattern)
				matched = true
				break
			}
		}
		if !matched {
			return "", false
		}
	}

	return layout.String(), true
}

func isPatternLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
