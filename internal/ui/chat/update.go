// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/streamchat/internal/render"
)

// chrome is the number of rows used by everything except the viewport.
const chrome = 6

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.session.SetAutoScroll(m.viewport.AtBottom())
		return m, cmd

	case StreamTextMsg:
		if msg.TurnID != m.turnID || len(m.entries) == 0 {
			return m, nil
		}
		m.entries[len(m.entries)-1].text = msg.Text
		m.refresh()
		return m, nil

	case StreamDoneMsg:
		return m.handleDone(msg), nil

	case ConfigReloadedMsg:
		return m.handleReload(msg), nil

	case spinner.TickMsg:
		if !m.Streaming() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.session.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Interrupt):
		if m.session.Active() {
			m.session.Stop()
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Stop):
		m.session.Stop()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		// The session goes idle before the turn's StreamDoneMsg arrives;
		// a new turn waits until the previous entry is finalized.
		if m.Streaming() {
			m.session.Stop()
			return m, nil
		}
		return m.submit()

	case key.Matches(msg, m.keys.Clear):
		if !m.Streaming() {
			m.entries = nil
			m.status = ""
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	m.session.SetAutoScroll(m.viewport.AtBottom())
	return m, nil
}

// =============================================================================
// TURNS
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		return m, nil
	}

	send := m.send
	fps := m.cfg.UI.MaxFPS
	turn := m.session.SubmitFunc(m.ctx, prompt, func(turnID string) render.Sink {
		out := render.SinkFunc(func(text string) {
			send.Send(StreamTextMsg{TurnID: turnID, Text: text})
		})
		return render.NewThrottle(render.NewDedup(out), fps)
	})
	if turn == nil {
		return m, nil
	}

	m.input.Reset()
	m.status = ""
	m.turnID = turn.ID
	m.entries = append(m.entries,
		entry{role: roleUser, text: prompt, done: true},
		entry{role: roleAssistant},
	)
	if m.cfg.UI.AutoScroll {
		m.session.SetAutoScroll(true)
	}
	m.refresh()
	return m, tea.Batch(waitForTurn(turn), m.spinner.Tick)
}

func (m Model) handleDone(msg StreamDoneMsg) Model {
	res := msg.Result
	if res.TurnID != m.turnID || len(m.entries) == 0 {
		return m
	}
	m.turnID = ""

	e := &m.entries[len(m.entries)-1]
	e.text = res.Text
	e.err = res.Err
	e.canceled = res.Canceled
	e.done = true
	m.renderEntry(e)

	switch {
	case res.Err != nil:
		m.status = "request failed"
	case res.Canceled:
		m.status = "stopped"
	default:
		m.status = ""
	}
	m.refresh()
	return m
}

func (m Model) handleReload(msg ConfigReloadedMsg) Model {
	if msg.Err != nil {
		m.logger.Warn("config reload failed", zap.Error(msg.Err))
		m.status = "config reload failed: " + msg.Err.Error()
		return m
	}

	p, err := m.build(msg.Config)
	if err != nil {
		m.logger.Warn("config reload rejected", zap.Error(err))
		m.status = "config reload failed: " + err.Error()
		return m
	}
	m.session.SetProducer(p)
	m.cfg = msg.Config
	m.status = "config reloaded (" + p.Name() + ")"
	m.logger.Info("config reloaded", zap.String("backend", p.Name()))
	return m
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width, m.height = msg.Width, msg.Height
	m.viewport.Width = msg.Width
	m.viewport.Height = max(msg.Height-chrome, 1)
	m.input.Width = max(msg.Width-8, 10)
	m.help.Width = msg.Width
	m.md = m.newMarkdown(m.wrapWidth())
	for i := range m.entries {
		m.renderEntry(&m.entries[i])
	}
	m.ready = true
	m.refresh()
	return m
}

func (m Model) wrapWidth() int {
	if m.width <= 4 {
		return render.DefaultWrap
	}
	return m.width - 4
}

// renderEntry caches the markdown form of a finished assistant entry.
func (m Model) renderEntry(e *entry) {
	e.rendered = ""
	if e.role != roleAssistant || !e.done || e.err != nil || m.md == nil || !m.cfg.UI.Markdown {
		return
	}
	e.rendered = strings.TrimRight(m.md.RenderOrPlain(e.text), "\n")
}

// refresh rebuilds the viewport content and follows the bottom when
// auto-scroll is on.
func (m *Model) refresh() {
	m.viewport.SetContent(m.transcript())
	if m.session.AutoScroll() {
		m.viewport.GotoBottom()
	}
}
