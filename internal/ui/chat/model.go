// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/render"
	"github.com/jeranaias/streamchat/internal/session"
)

// BuildFunc creates the producer for a configuration.
type BuildFunc func(cfg *config.Config) (session.Producer, error)

// =============================================================================
// TRANSCRIPT
// =============================================================================

type role int

const (
	roleUser role = iota
	roleAssistant
)

// entry is one message in the transcript.
type entry struct {
	role     role
	text     string
	rendered string // markdown output, set once the turn is finished
	err      error
	canceled bool
	done     bool
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctx     context.Context
	session *session.Session
	cfg     *config.Config
	build   BuildFunc
	logger  *zap.Logger
	send    *sender

	keys     KeyMap
	help     help.Model
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	md       *render.Markdown
	style    string

	entries []entry
	turnID  string // turn whose messages are accepted, "" when idle
	status  string

	width  int
	height int
	ready  bool
}

// New creates the chat model. style is a resolved glamour style name.
func New(ctx context.Context, sess *session.Session, cfg *config.Config, build BuildFunc, style string, logger *zap.Logger) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Default()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask something..."
	ti.Prompt = "> "
	ti.CharLimit = 0
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = assistantLabelStyle

	m := Model{
		ctx:      ctx,
		session:  sess,
		cfg:      cfg,
		build:    build,
		logger:   logger,
		send:     &sender{},
		keys:     DefaultKeyMap(),
		help:     help.New(),
		input:    ti,
		viewport: viewport.New(render.DefaultWrap, 20),
		spinner:  sp,
		style:    style,
	}
	m.md = m.newMarkdown(render.DefaultWrap)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Streaming reports whether the view is waiting on a turn.
func (m Model) Streaming() bool {
	return m.turnID != ""
}

func (m Model) newMarkdown(width int) *render.Markdown {
	md, err := render.NewMarkdown(m.style, width)
	if err != nil {
		m.logger.Warn("markdown renderer unavailable", zap.Error(err))
		return nil
	}
	return md
}
