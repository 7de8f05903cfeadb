package ingest

import (
	"strings"
	"testing"
)

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://example.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/watch", "", true},
		{"not a url at all!", "", true},
	}
	for _, tc := range cases {
		got, err := ExtractVideoID(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: want error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitTranscript(t *testing.T) {
	words := make([]string, 1700)
	for i := range words {
		words[i] = "word"
	}
	chunks := SplitTranscript(strings.Join(words, " "), 750)
	if len(chunks) != 3 {
		t.Fatalf("want 3 chunks, got %d", len(chunks))
	}
	if n := len(strings.Fields(chunks[0])); n != 750 {
		t.Fatalf("first chunk has %d words", n)
	}
	if n := len(strings.Fields(chunks[2])); n != 200 {
		t.Fatalf("last chunk has %d words", n)
	}

	if got := SplitTranscript("   ", 750); got != nil {
		t.Fatalf("empty transcript should produce no chunks")
	}
}

func TestParseQAPairs(t *testing.T) {
	raw := "```json\n[\n  {\"role\": \"user\", \"content\": \"What is CPC?\"},\n  {\"role\": \"assistant\", \"content\": \"Cost per click.\"},\n  {\"role\": \"user\", \"content\": \"And CTR?\"},\n  {\"role\": \"assistant\", \"content\": \"Click-through rate.\"}\n]\n```"
	pairs, err := ParseQAPairs(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("want 2 pairs, got %d", len(pairs))
	}
	if pairs[0].Question != "What is CPC?" || pairs[0].Answer != "Cost per click." {
		t.Fatalf("unexpected first pair: %+v", pairs[0])
	}
}

func TestParseQAPairsDropsDanglingTurns(t *testing.T) {
	raw := `[
  {"role": "assistant", "content": "orphan answer"},
  {"role": "user", "content": "a question"},
  {"role": "assistant", "content": "its answer"},
  {"role": "user", "content": "dangling question"}
]`
	pairs, err := ParseQAPairs(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(pairs) != 1 || pairs[0].Question != "a question" {
		t.Fatalf("unexpected pairs: %+v", pairs)
	}
}

func TestParseQAPairsMalformed(t *testing.T) {
	if _, err := ParseQAPairs("sorry, I cannot do that"); err == nil {
		t.Fatalf("want error for non-JSON response")
	}
	if _, err := ParseQAPairs("[]"); err == nil {
		t.Fatalf("want error for empty turn list")
	}
}

func TestParseTimedText(t *testing.T) {
	xmlDoc := `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.5">welcome to the channel</text>
  <text start="2.5" dur="3.1">today we talk about growth</text>
  <text start="5.6" dur="1.0">  </text>
</transcript>`
	got, err := ParseTimedText([]byte(xmlDoc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := "welcome to the channel today we talk about growth"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if _, err := ParseTimedText([]byte("<transcript></transcript>")); err == nil {
		t.Fatalf("want error for empty transcript")
	}
}

func TestStripCodeFence(t *testing.T) {
	if got := StripCodeFence("```json\n[1]\n```"); got != "[1]" {
		t.Fatalf("fenced: %q", got)
	}
	if got := StripCodeFence("[1]"); got != "[1]" {
		t.Fatalf("bare: %q", got)
	}
}
