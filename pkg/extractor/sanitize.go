package extractor

import "strings"

// Sanitize concatenates the plain spans of a partition, preserving their
// original order and whitespace. Directive-shaped spans are dropped whether
// or not they parse; being recognized as directive-shaped is enough.
func Sanitize(spans []Span) string {
	var b strings.Builder
	for _, sp := range spans {
		if sp.Kind == SpanPlain {
			b.WriteString(sp.Text)
		}
	}
	return b.String()
}

// CleanText strips every directive span from a complete buffer. Idempotent:
// cleaning already-clean text returns it unchanged.
func CleanText(text string) string {
	return Sanitize(Partition(text))
}
