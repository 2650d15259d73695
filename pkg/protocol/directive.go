package protocol

import (
	"strconv"
	"strings"
)

// Kind classifies a parsed directive.
type Kind string

// Directive kind constants.
const (
	KindStart    Kind = "start"
	KindProgress Kind = "progress"
	KindDone     Kind = "done"
	KindFail     Kind = "fail"
	KindUnknown  Kind = "unknown"
)

// StartPayload carries the fields of a start directive.
type StartPayload struct {
	AgentID     string `json:"agent_id"`
	Description string `json:"description"`
}

// ProgressPayload carries the fields of a progress directive.
type ProgressPayload struct {
	TaskID  string `json:"task_id"`
	Percent int    `json:"percent"`
}

// DonePayload carries the fields of a done directive.
type DonePayload struct {
	TaskID string `json:"task_id"`
}

// FailPayload carries the fields of a fail directive.
type FailPayload struct {
	TaskID string `json:"task_id"`
	Reason string `json:"reason"`
}

// Directive is one parsed control command. Exactly one payload pointer is
// non-nil for well-formed directives; malformed ones carry only Raw and
// KindUnknown so they can be logged without losing the original text.
type Directive struct {
	Kind       Kind             `json:"kind"`
	Raw        string           `json:"raw"`
	WellFormed bool             `json:"well_formed"`
	Start      *StartPayload    `json:"start,omitempty"`
	Progress   *ProgressPayload `json:"progress,omitempty"`
	Done       *DonePayload     `json:"done,omitempty"`
	Fail       *FailPayload     `json:"fail,omitempty"`
}

// decoders maps verb keywords to field decoders. Adding a verb means adding
// a Kind constant, a payload type, and one entry here.
var decoders = map[string]func(raw, rest string) Directive{ //nolint:gochecknoglobals // compile-once dispatch table
	"start":    decodeStart,
	"progress": decodeProgress,
	"done":     decodeDone,
	"fail":     decodeFail,
}

// Parse classifies a full directive span (opening marker through closing
// bracket) and decodes its typed fields. Anything that is not a well-formed
// task-namespace directive comes back as KindUnknown with Raw preserved;
// Parse never returns an error because malformed directives are data, not
// failures.
func Parse(raw string) Directive {
	inner, ok := taskInner(raw)
	if !ok {
		return unknown(raw)
	}

	verb, rest := splitToken(inner)
	decode, ok := decoders[verb]
	if !ok {
		return unknown(raw)
	}
	return decode(raw, rest)
}

// taskInner strips the task marker and closing bracket, returning the verb
// and argument text. Route-namespace and malformed spans return ok=false.
func taskInner(raw string) (inner string, ok bool) {
	if !strings.HasPrefix(raw, TaskMarker) {
		return "", false
	}
	inner = raw[len(TaskMarker):]
	// The marker must be followed by whitespace or the closing bracket so
	// that "[yolla:taskforce ...]" is not claimed by the task namespace.
	if inner != "" && inner[0] != ' ' && inner[0] != '\t' && inner[0] != CloseDelim {
		return "", false
	}
	inner = strings.TrimSuffix(inner, string(CloseDelim))
	return strings.TrimSpace(inner), true
}

func unknown(raw string) Directive {
	return Directive{Kind: KindUnknown, Raw: raw}
}

func decodeStart(raw, rest string) Directive {
	agentID, tail := splitToken(rest)
	if agentID == "" {
		return unknown(raw)
	}
	return Directive{
		Kind:       KindStart,
		Raw:        raw,
		WellFormed: true,
		Start: &StartPayload{
			AgentID:     agentID,
			Description: quotedField(tail),
		},
	}
}

func decodeProgress(raw, rest string) Directive {
	taskID, tail := splitToken(rest)
	if taskID == "" {
		return unknown(raw)
	}
	pctTok, _ := splitToken(tail)
	pct, err := strconv.Atoi(pctTok)
	if err != nil || pct < 0 || pct > 100 {
		// Reject at parse time; registry-side clamping is only for callers
		// that bypass the wire format.
		return unknown(raw)
	}
	return Directive{
		Kind:       KindProgress,
		Raw:        raw,
		WellFormed: true,
		Progress:   &ProgressPayload{TaskID: taskID, Percent: pct},
	}
}

func decodeDone(raw, rest string) Directive {
	taskID, _ := splitToken(rest)
	if taskID == "" {
		return unknown(raw)
	}
	return Directive{
		Kind:       KindDone,
		Raw:        raw,
		WellFormed: true,
		Done:       &DonePayload{TaskID: taskID},
	}
}

func decodeFail(raw, rest string) Directive {
	taskID, tail := splitToken(rest)
	if taskID == "" {
		return unknown(raw)
	}
	return Directive{
		Kind:       KindFail,
		Raw:        raw,
		WellFormed: true,
		Fail:       &FailPayload{TaskID: taskID, Reason: quotedField(tail)},
	}
}

// splitToken returns the first whitespace-delimited token and the remainder.
func splitToken(s string) (tok, rest string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}

// quotedField extracts the substring between the first pair of double quotes.
// The grammar defines no escaping, so the first closing quote wins. Without a
// closing quote the text after the opening quote is taken, and without any
// quotes the whole remainder is taken — the documented best-effort policy
// for legacy emitters that forget to quote.
func quotedField(s string) string {
	open := strings.IndexByte(s, '"')
	if open < 0 {
		return strings.TrimSpace(s)
	}
	body := s[open+1:]
	if close := strings.IndexByte(body, '"'); close >= 0 {
		return body[:close]
	}
	return strings.TrimSpace(body)
}
