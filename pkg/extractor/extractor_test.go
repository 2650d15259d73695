package extractor_test

import (
	"strings"
	"testing"

	"yolla/pkg/extractor"
)

// join reconstructs the original buffer from a partition.
func join(spans []extractor.Span) string {
	var b strings.Builder
	for _, sp := range spans {
		b.WriteString(sp.Text)
	}
	return b.String()
}

func TestPartitionLossless(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"no directives at all",
		`Let me check. [yolla:task start sec-1 "scan for SQLi"] I'll report back.`,
		"[yolla:task done sec-1]",
		"[yolla:task done a][yolla:task done b]",
		"leading [yolla:route web x] middle [yolla:task done y] trailing",
		"unterminated tail [yolla:task sta",
		"bracket in quotes [yolla:task fail f-1 \"lookup [deep] failed\"] after",
		"stray ] bracket and [ another",
		"[yol",
	}
	for _, in := range inputs {
		spans := extractor.Partition(in)
		if got := join(spans); got != in {
			t.Errorf("partition of %q not lossless: got %q", in, got)
		}
	}
}

func TestPartitionSpans(t *testing.T) {
	t.Parallel()

	spans := extractor.Partition(`Let me check. [yolla:task start sec-1 "scan for SQLi"] I'll report back.`)
	want := []extractor.Span{
		{Kind: extractor.SpanPlain, Text: "Let me check. "},
		{Kind: extractor.SpanDirective, Text: `[yolla:task start sec-1 "scan for SQLi"]`},
		{Kind: extractor.SpanPlain, Text: " I'll report back."},
	}
	if len(spans) != len(want) {
		t.Fatalf("got %d spans, want %d: %+v", len(spans), len(want), spans)
	}
	for i, sp := range spans {
		if sp != want[i] {
			t.Errorf("span %d = %+v, want %+v", i, sp, want[i])
		}
	}
}

func TestBracketInsideQuotedField(t *testing.T) {
	t.Parallel()

	spans := extractor.Partition(`[yolla:task fail f-1 "lookup [deep] failed"] tail`)
	if spans[0].Kind != extractor.SpanDirective {
		t.Fatalf("first span kind = %s", spans[0].Kind)
	}
	if spans[0].Text != `[yolla:task fail f-1 "lookup [deep] failed"]` {
		t.Errorf("directive span = %q, inner bracket should not close it", spans[0].Text)
	}
}

func TestStreamingResumesMidDirective(t *testing.T) {
	t.Parallel()

	var sc extractor.Scanner

	spans := sc.Feed("Working on it. [yolla:task sta")
	if len(spans) != 1 || spans[0].Kind != extractor.SpanPlain || spans[0].Text != "Working on it. " {
		t.Fatalf("first feed spans = %+v", spans)
	}
	if sc.Pending() == "" {
		t.Fatal("scanner should hold the incomplete directive")
	}

	spans = sc.Feed(`rt sec-2 "x"] done.`)
	if len(spans) != 2 {
		t.Fatalf("second feed spans = %+v", spans)
	}
	if spans[0].Kind != extractor.SpanDirective || spans[0].Text != `[yolla:task start sec-2 "x"]` {
		t.Errorf("directive span = %+v", spans[0])
	}
	if spans[1].Kind != extractor.SpanPlain || spans[1].Text != " done." {
		t.Errorf("trailing span = %+v", spans[1])
	}

	if rest := sc.Flush(); rest != nil {
		t.Errorf("flush after settled stream = %+v, want nil", rest)
	}
}

func TestStreamingSplitMarker(t *testing.T) {
	t.Parallel()

	var sc extractor.Scanner
	var all []extractor.Span

	// Token-by-token arrival splitting the open marker itself.
	for _, chunk := range []string{"alpha [y", "oll", "a:task done d-1] om", "ega"} {
		all = append(all, sc.Feed(chunk)...)
	}
	all = append(all, sc.Flush()...)

	if got := join(all); got != "alpha [yolla:task done d-1] omega" {
		t.Fatalf("reassembled = %q", got)
	}
	var directives int
	for _, sp := range all {
		if sp.Kind == extractor.SpanDirective {
			directives++
			if sp.Text != "[yolla:task done d-1]" {
				t.Errorf("directive text = %q", sp.Text)
			}
		}
	}
	if directives != 1 {
		t.Errorf("directive spans = %d, want 1", directives)
	}
}

func TestFlushUnterminatedDirective(t *testing.T) {
	t.Parallel()

	var sc extractor.Scanner
	sc.Feed("...[yolla:task sta")
	spans := sc.Flush()
	if len(spans) != 1 || spans[0].Kind != extractor.SpanDirective {
		t.Fatalf("flush spans = %+v, want one directive-shaped span", spans)
	}
}

func TestFlushPartialMarkerIsPlain(t *testing.T) {
	t.Parallel()

	var sc extractor.Scanner
	sc.Feed("ends with [yol")
	spans := sc.Flush()
	if len(spans) != 1 || spans[0].Kind != extractor.SpanPlain || spans[0].Text != "[yol" {
		t.Fatalf("flush spans = %+v, want plain [yol", spans)
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips_directive_keeps_whitespace",
			in:   `Let me check. [yolla:task start sec-1 "scan for SQLi"] I'll report back.`,
			want: "Let me check.  I'll report back.",
		},
		{name: "no_directives", in: "plain prose", want: "plain prose"},
		{name: "malformed_still_stripped", in: "a [yolla:task bogus!!] b", want: "a  b"},
		{name: "route_namespace_stripped", in: "x [yolla:route later] y", want: "x  y"},
		{name: "unterminated_stripped", in: "trailing [yolla:task sta", want: "trailing "},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := extractor.CleanText(tt.in)
			if got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
			// Idempotence: cleaning clean text changes nothing.
			if again := extractor.CleanText(got); again != got {
				t.Errorf("CleanText not idempotent: %q -> %q", got, again)
			}
			if strings.Contains(got, "[yolla:") {
				t.Errorf("sanitized text still contains open marker: %q", got)
			}
		})
	}
}
