// Package extractor partitions conductor output into plain-text and
// directive spans. The scanner is pure and synchronous: it performs no I/O
// and is safe to call on every incoming chunk of a still-streaming response,
// holding an incomplete directive across calls until its closing bracket
// arrives.
package extractor

import (
	"strings"

	"yolla/pkg/protocol"
)

// SpanKind tags a span as directive-shaped or plain narrative text.
type SpanKind string

// Span kind constants.
const (
	SpanPlain     SpanKind = "plain"
	SpanDirective SpanKind = "directive"
)

// Span is one piece of the lossless partition. Concatenating the Text of all
// spans emitted for a stream, in order, reproduces the input exactly.
type Span struct {
	Kind SpanKind
	Text string
}

// Scanner incrementally partitions a growing text stream. The zero value is
// ready to use. Not safe for concurrent use; each stream gets its own Scanner.
type Scanner struct {
	// carry holds the unresolved tail of the stream: either an open
	// directive waiting for its closing bracket, or a partial open marker
	// that the next chunk may complete.
	carry string
}

// Feed appends chunk to the stream and returns the spans that became fully
// resolved. Text held back as a possible directive is returned by a later
// Feed or by Flush.
func (s *Scanner) Feed(chunk string) []Span {
	buf := s.carry + chunk
	s.carry = ""

	var spans []Span
	for buf != "" {
		open := strings.Index(buf, protocol.OpenPrefix)
		if open < 0 {
			// No open marker. Hold back any tail that is a partial marker;
			// the rest is settled plain text.
			hold := partialMarkerLen(buf)
			if plain := buf[:len(buf)-hold]; plain != "" {
				spans = append(spans, Span{Kind: SpanPlain, Text: plain})
			}
			s.carry = buf[len(buf)-hold:]
			return spans
		}

		if open > 0 {
			spans = append(spans, Span{Kind: SpanPlain, Text: buf[:open]})
		}
		buf = buf[open:]

		end, ok := closeIndex(buf)
		if !ok {
			// Incomplete directive: hold until the closing bracket arrives.
			s.carry = buf
			return spans
		}
		spans = append(spans, Span{Kind: SpanDirective, Text: buf[:end+1]})
		buf = buf[end+1:]
	}
	return spans
}

// Flush ends the stream and returns any held-back span. An unterminated
// directive flushes as a directive-shaped span so the sanitizer still strips
// it; a partial open marker flushes as plain text since it never matched the
// grammar's opening token.
func (s *Scanner) Flush() []Span {
	carry := s.carry
	s.carry = ""
	if carry == "" {
		return nil
	}
	kind := SpanPlain
	if strings.HasPrefix(carry, protocol.OpenPrefix) {
		kind = SpanDirective
	}
	return []Span{{Kind: kind, Text: carry}}
}

// Pending returns the currently held-back text. Diagnostic only.
func (s *Scanner) Pending() string {
	return s.carry
}

// Partition splits a complete buffer in one call.
func Partition(text string) []Span {
	var sc Scanner
	spans := sc.Feed(text)
	return append(spans, sc.Flush()...)
}

// closeIndex finds the bracket that closes the directive starting at buf[0].
// Directives do not nest, but quoted fields may contain brackets, so the
// span ends at the first unbalanced closing bracket.
func closeIndex(buf string) (int, bool) {
	depth := 0
	for i := 0; i < len(buf); i++ {
		switch buf[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// partialMarkerLen returns the length of the longest suffix of buf that is a
// proper prefix of the open marker. That suffix may become a directive once
// the next chunk arrives, so it cannot be settled as plain text yet.
func partialMarkerLen(buf string) int {
	maxLen := len(protocol.OpenPrefix) - 1
	if maxLen > len(buf) {
		maxLen = len(buf)
	}
	for k := maxLen; k > 0; k-- {
		if strings.HasPrefix(protocol.OpenPrefix, buf[len(buf)-k:]) {
			return k
		}
	}
	return 0
}
