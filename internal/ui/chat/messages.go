// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/session"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamTextMsg carries the full text produced so far for a turn.
type StreamTextMsg struct {
	TurnID string
	Text   string
}

// StreamDoneMsg signals that a turn has finished.
type StreamDoneMsg struct {
	Result session.Result
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg is sent when the config file changed on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// =============================================================================
// SENDER
// =============================================================================

// sender forwards messages from background goroutines into the program.
// It is shared by every copy of the Model and bound once the program exists.
type sender struct {
	mu sync.RWMutex
	fn func(tea.Msg)
}

func (s *sender) bind(fn func(tea.Msg)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fn = fn
}

// Send drops msg when no program is bound.
func (s *sender) Send(msg tea.Msg) {
	s.mu.RLock()
	fn := s.fn
	s.mu.RUnlock()
	if fn != nil {
		fn(msg)
	}
}

// waitForTurn returns a command that reports when t finishes.
func waitForTurn(t *session.Turn) tea.Cmd {
	return func() tea.Msg {
		return StreamDoneMsg{Result: t.Wait()}
	}
}
