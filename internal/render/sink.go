// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

// Sink receives the latest full response text. Each call replaces whatever
// the previous call displayed.
type Sink interface {
	Render(text string)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(text string)

// Render calls f(text).
func (f SinkFunc) Render(text string) {
	f(text)
}

// Discard is a Sink that ignores everything.
var Discard Sink = SinkFunc(func(string) {})

// Map returns a Sink that transforms each text with fn before forwarding it.
func Map(next Sink, fn func(string) string) Sink {
	return SinkFunc(func(text string) {
		next.Render(fn(text))
	})
}

// Tee forwards every text to each sink in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(text string) {
		for _, s := range sinks {
			s.Render(text)
		}
	})
}

// Recorder is a Sink that keeps every text it receives. Safe for use from a
// single goroutine only.
type Recorder struct {
	Texts []string
}

// Render implements Sink.
func (r *Recorder) Render(text string) {
	r.Texts = append(r.Texts, text)
}

// Last returns the most recent text, or "" when nothing was rendered.
func (r *Recorder) Last() string {
	if len(r.Texts) == 0 {
		return ""
	}
	return r.Texts[len(r.Texts)-1]
}

// Flusher is implemented by sinks that may hold back a pending text.
type Flusher interface {
	Flush()
}

// Flush flushes s if it holds back text.
func Flush(s Sink) {
	if f, ok := s.(Flusher); ok {
		f.Flush()
	}
}
