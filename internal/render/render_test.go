// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// syncRecorder is a Recorder safe for use from timer goroutines.
type syncRecorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *syncRecorder) Render(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

func (r *syncRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

// =============================================================================
// SINK TESTS
// =============================================================================

func TestTeeAndMap(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	sink := Map(Tee(a, b), strings.ToUpper)

	sink.Render("hi")
	sink.Render("hi there")

	if a.Last() != "HI THERE" || b.Last() != "HI THERE" {
		t.Errorf("Expected both sinks to see HI THERE, got %q and %q", a.Last(), b.Last())
	}
	if len(a.Texts) != 2 {
		t.Errorf("Expected 2 texts, got %d", len(a.Texts))
	}
}

// =============================================================================
// DEDUP TESTS
// =============================================================================

func TestDedupIsIdempotent(t *testing.T) {
	rec := &Recorder{}
	d := NewDedup(rec)

	for _, s := range []string{"a", "a", "ab", "ab", "ab", "abc"} {
		d.Render(s)
	}

	want := []string{"a", "ab", "abc"}
	if len(rec.Texts) != len(want) {
		t.Fatalf("Expected %v, got %v", want, rec.Texts)
	}
	for i := range want {
		if rec.Texts[i] != want[i] {
			t.Errorf("Text %d: expected %q, got %q", i, want[i], rec.Texts[i])
		}
	}
}

func TestDedupFirstEmptyStringForwarded(t *testing.T) {
	rec := &Recorder{}
	d := NewDedup(rec)

	d.Render("")
	d.Render("")

	if len(rec.Texts) != 1 {
		t.Errorf("Expected the first empty text to be forwarded once, got %d", len(rec.Texts))
	}
}

// =============================================================================
// THROTTLE TESTS
// =============================================================================

func TestThrottleFirstRenderImmediate(t *testing.T) {
	rec := &syncRecorder{}
	th := NewThrottle(rec, 10)

	th.Render("a")

	if got := rec.snapshot(); len(got) != 1 || got[0] != "a" {
		t.Errorf("Expected immediate delivery of first text, got %v", got)
	}
}

func TestThrottleCoalescesAndFlushes(t *testing.T) {
	rec := &syncRecorder{}
	th := NewThrottle(rec, 1) // one per second, so the timer cannot fire during the test

	th.Render("a")
	th.Render("ab")
	th.Render("abc")

	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("Expected intermediate texts to be held back, got %v", got)
	}
	th.Flush()

	got := rec.snapshot()
	if len(got) != 2 || got[1] != "abc" {
		t.Errorf("Expected flush to deliver only the latest text, got %v", got)
	}
	th.Flush()
	if len(rec.snapshot()) != 2 {
		t.Error("Second flush must not deliver again")
	}
}

func TestThrottleTrailingDelivery(t *testing.T) {
	rec := &syncRecorder{}
	th := NewThrottle(rec, 20)

	th.Render("a")
	th.Render("ab")
	th.Render("abc")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got := rec.snapshot()
		if len(got) > 0 && got[len(got)-1] == "abc" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected trailing timer to deliver the last text, got %v", rec.snapshot())
}

func TestThrottleClose(t *testing.T) {
	rec := &syncRecorder{}
	th := NewThrottle(rec, 1)

	th.Render("a")
	th.Render("b")
	th.Close()
	th.Render("c")

	got := rec.snapshot()
	if len(got) != 2 || got[1] != "b" {
		t.Errorf("Expected close to flush b and drop c, got %v", got)
	}
}

func TestThrottleDefaultRate(t *testing.T) {
	th := NewThrottle(Discard, 0)
	if th.limiter.Burst() != 1 {
		t.Errorf("Expected burst 1, got %d", th.limiter.Burst())
	}
	want := float64(DefaultMaxFPS)
	if got := float64(th.limiter.Limit()); got < want-0.01 || got > want+0.01 {
		t.Errorf("Expected default limit %v, got %v", want, got)
	}
}

// =============================================================================
// SANITIZE TESTS
// =============================================================================

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"keeps newline and tab", "a\n\tb", "a\n\tb"},
		{"strips color", "\x1b[31mred\x1b[0m", "red"},
		{"strips OSC title", "\x1b]0;pwned\x07ok", "ok"},
		{"strips carriage return", "safe\rEVIL", "safeEVIL"},
		{"strips bell and backspace", "a\x07b\x08c", "abc"},
		{"strips C1", "a\u0085", "a"},
		{"replaces invalid UTF-8", "a\xffb", "a�b"},
		{"keeps unicode", "héllo ☃", "héllo ☃"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Sanitize(tc.in); got != tc.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

// =============================================================================
// WRITER TESTS
// =============================================================================

func TestWriterAppendsSuffix(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	for _, s := range []string{"He", "Hello", "Hello", "Hello, world"} {
		w.Render(s)
	}

	if buf.String() != "Hello, world" {
		t.Errorf("Expected %q, got %q", "Hello, world", buf.String())
	}
	if w.Diverged() {
		t.Error("Expected no divergence")
	}
}

func TestWriterDivergence(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	w.Render("abc")
	w.Render("abX")
	w.Render("abcd")

	if buf.String() != "abcd" {
		t.Errorf("Expected %q, got %q", "abcd", buf.String())
	}
	if !w.Diverged() {
		t.Error("Expected divergence to be reported")
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriterStopsOnError(t *testing.T) {
	w := NewWriter(failWriter{})
	w.Render("a")
	w.Render("ab")

	if w.Err() == nil || w.Err().Error() != "broken pipe" {
		t.Errorf("Expected broken pipe error, got %v", w.Err())
	}
	if w.Written() != "" {
		t.Errorf("Expected nothing recorded as written, got %q", w.Written())
	}
}

// =============================================================================
// MARKDOWN AND HTML TESTS
// =============================================================================

func TestMarkdownRender(t *testing.T) {
	md, err := NewMarkdown("notty", 40)
	if err != nil {
		t.Fatalf("NewMarkdown failed: %v", err)
	}

	out, err := md.Render("# Title\n\nsome **bold** text\x1b]0;pwned\x07")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out, "Title") || !strings.Contains(out, "bold") {
		t.Errorf("Expected rendered output to keep the text, got %q", out)
	}
	if strings.Contains(out, "pwned") || strings.Contains(out, "\x07") {
		t.Errorf("Expected escape sequence to be stripped, got %q", out)
	}
}

func TestHTMLRenderSanitizes(t *testing.T) {
	h := NewHTML()

	tests := []struct {
		name    string
		in      string
		want    []string
		notWant []string
	}{
		{
			name: "markdown",
			in:   "# Hi\n\n**bold**",
			want: []string{"<h1>Hi</h1>", "<strong>bold</strong>"},
		},
		{
			name:    "script",
			in:      "hello <script>alert(1)</script>",
			want:    []string{"hello"},
			notWant: []string{"<script", "alert(1)"},
		},
		{
			name:    "javascript link",
			in:      "[x](javascript:alert(1))",
			notWant: []string{"javascript:"},
		},
		{
			name:    "event handler",
			in:      `<b onclick="steal()">hi</b>`,
			want:    []string{"<b>hi</b>"},
			notWant: []string{"onclick"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := h.Render(tc.in)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			for _, w := range tc.want {
				if !strings.Contains(out, w) {
					t.Errorf("Expected %q in %q", w, out)
				}
			}
			for _, nw := range tc.notWant {
				if strings.Contains(out, nw) {
					t.Errorf("Did not expect %q in %q", nw, out)
				}
			}
		})
	}
}
