// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat is the interactive terminal front end for streamchat.

It is a Bubble Tea program built from a bubbles textinput, viewport and
spinner. Prompts are handed to a session.Session, and the streamed text comes
back as StreamTextMsg messages sent from the producer goroutine through a
throttled, deduplicated render sink.

# Keys

  - Enter submits the prompt, or stops the active stream
  - Esc stops the active stream
  - Ctrl+C stops the active stream, or quits when idle
  - Ctrl+Q quits
  - Up/Down/PgUp/PgDn scroll, Ctrl+Home/Ctrl+End jump to the top or bottom
  - Ctrl+L clears the transcript

The view follows new output only while the session's auto-scroll flag is set.
Scrolling up clears it and scrolling back to the bottom sets it again.

# Usage

	err := chat.Run(ctx, chat.Options{
		Session:       sess,
		Config:        cfg,
		ConfigPath:    path,
		BuildProducer: build,
		Logger:        logger,
	})
*/
package chat
