// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/streamchat/internal/config"
	"github.com/jeranaias/streamchat/internal/render"
	"github.com/jeranaias/streamchat/internal/util"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Starting..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderStatus(),
		inputBorderStyle.Width(max(m.width-2, 10)).Render(m.input.View()),
	)
}

func (m Model) renderHeader() string {
	info := m.cfg.Backend
	if m.cfg.Backend == config.BackendRemote {
		info += " · " + m.cfg.Remote.Model
	}
	title := headerStyle.Render("streamchat")
	return title + headerInfoStyle.Render(util.TruncateWidth(info, max(m.width-lipgloss.Width(title)-1, 0)))
}

func (m Model) renderStatus() string {
	var line string
	switch {
	case m.Streaming():
		line = m.spinner.View() + " streaming · Esc to stop"
		if !m.session.AutoScroll() {
			line += " · scrolled up"
		}
	case m.status != "":
		line = m.status
	default:
		line = m.help.View(m.keys)
	}
	return statusStyle.Render(util.TruncateWidth(line, max(m.width-2, 0)))
}

// transcript renders every entry for the viewport.
func (m Model) transcript() string {
	if len(m.entries) == 0 {
		return mutedStyle.Render("Type a prompt and press Enter.")
	}

	wrap := lipgloss.NewStyle().Width(m.wrapWidth())
	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch e.role {
		case roleUser:
			b.WriteString(userLabelStyle.Render("You"))
			b.WriteByte('\n')
			b.WriteString(wrap.Render(render.Sanitize(e.text)))
		case roleAssistant:
			b.WriteString(assistantLabelStyle.Render("Assistant"))
			b.WriteByte('\n')
			b.WriteString(m.renderAssistant(e, wrap))
		}
	}
	return b.String()
}

func (m Model) renderAssistant(e entry, wrap lipgloss.Style) string {
	body := e.rendered
	if body == "" {
		body = wrap.Render(render.Sanitize(e.text))
	}
	switch {
	case e.err != nil:
		if e.text != "" {
			body += "\n"
		} else {
			body = ""
		}
		body += errorStyle.Render("Error: " + e.err.Error())
	case e.canceled:
		body += "\n" + mutedStyle.Render("[stopped]")
	case !e.done && e.text == "":
		body = mutedStyle.Render("...")
	}
	return body
}
