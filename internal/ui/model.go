package ui

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gonewx/chemlab/internal/reaction"
	"github.com/gonewx/chemlab/pkg/library"
	"github.com/gonewx/chemlab/pkg/player"
	"github.com/gonewx/chemlab/pkg/timeline"
)

const (
	seekStep    = 0.05
	speedFactor = 1.25
)

// Model is the Bubbletea model for the labplay TUI.
type Model struct {
	player   *player.Player
	settings *library.SettingsStore // may be nil
	frame    *timeline.Frame
	bar      progress.Model
	interval time.Duration
	last     time.Time
	width    int
	quitting bool
}

// New creates a model driving p. When settings is non-nil the current speed
// and loop flag are saved on quit.
func New(p *player.Player, settings *library.SettingsStore) Model {
	rate := p.Settings().TickRate
	if rate <= 0 {
		rate = 60
	}

	bar := progress.New(
		progress.WithScaledGradient("#4FC3F7", "#7E57C2"),
		progress.WithoutPercentage(),
	)
	bar.Width = 40

	return Model{
		player:   p,
		settings: settings,
		frame:    p.Frame(),
		bar:      bar,
		interval: time.Second / time.Duration(rate),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.interval), tea.SetWindowTitle(windowTitle(m.player)))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if isQuit(msg) {
			m.quitting = true
			m.saveSettings()
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
		switch msg.String() {
		case " ":
			m.player.Toggle()
		case "left":
			m.player.SeekSmooth(m.player.Progress() - seekStep)
		case "right":
			m.player.SeekSmooth(m.player.Progress() + seekStep)
		case "n":
			m.player.NextStep()
		case "p":
			m.player.PrevStep()
		case "+", "=":
			m.player.SetSpeed(m.player.Speed() * speedFactor)
		case "-":
			m.player.SetSpeed(m.player.Speed() / speedFactor)
		case "l":
			m.player.SetLoop(!m.player.Loop())
		case "r":
			m.player.Seek(0)
			m.frame = m.player.Frame()
		}
		return m, nil

	case tickMsg:
		now := time.Time(msg)
		dt := 0.0
		if !m.last.IsZero() {
			dt = now.Sub(m.last).Seconds()
		}
		m.last = now
		m.frame = m.player.Update(dt)
		return m, tickCmd(m.interval)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-16, 20), 60)
		return m, nil
	}

	return m, nil
}

func (m Model) saveSettings() {
	if m.settings == nil {
		return
	}
	s := m.player.Settings()
	m.settings.SetSpeed(s.Speed)
	m.settings.SetLoop(s.Loop)
	if err := m.settings.Save(); err != nil {
		log.Printf("[UI] Warning: Failed to save settings: %v", err)
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	doc := m.player.Document()
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("  " + headerStyle.Render("chemlab") + "\n\n")
	title := doc.Title
	if title == "" {
		title = "untitled reaction"
	}
	b.WriteString("  " + titleStyle.Render(title) + "\n")
	b.WriteString("  " + stepStyle.Render(stepLine(m.frame, doc.Timeline)) + "\n\n")

	b.WriteString("  " + m.bar.ViewAs(m.player.Progress()))
	b.WriteString(fmt.Sprintf("  %3.0f%%\n", m.player.Progress()*100))
	b.WriteString("  " + statusStyle.Render(statusLine(m.player)) + "\n")

	if lines := effectLines(m.frame); len(lines) > 0 {
		b.WriteString("\n")
		for _, line := range lines {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n  " + helpStyle.Render(helpText()) + "\n")
	return b.String()
}

func windowTitle(p *player.Player) string {
	if t := p.Document().Title; t != "" {
		return "chemlab - " + t
	}
	return "chemlab"
}

func stepLine(frame *timeline.Frame, tl reaction.Timeline) string {
	if frame == nil || !frame.Position.Found {
		return "no steps"
	}
	pos := frame.Position
	line := fmt.Sprintf("step %d/%d  %3.0f%%", pos.StepIndex+1, tl.Len(), pos.StepProgress*100)
	if step, ok := tl.Step(pos.StepIndex); ok && step.Description != "" {
		line += "  " + step.Description
	}
	return line
}

func statusLine(p *player.Player) string {
	icon, text := "❚❚", "paused"
	switch {
	case p.Scrubbing():
		icon, text = "»", "seeking"
	case p.Playing():
		icon, text = "▶", "playing"
	}
	line := fmt.Sprintf("%s  %s  %.2fx", icon, text, p.Speed())
	if p.Loop() {
		line += "  ⟲ loop"
	}
	return line
}

// effectLines describes the render overlay, one line per object, sorted
// by object ID.
func effectLines(frame *timeline.Frame) []string {
	if frame == nil || len(frame.Render) == 0 {
		return nil
	}

	ids := make([]string, 0, len(frame.Render))
	for id := range frame.Render {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		overlay := frame.Render[id]
		keys := make([]string, 0, len(overlay))
		for k := range overlay {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			v := overlay[k]
			if k == timeline.KeyColor {
				if s, ok := v.AsString(); ok {
					parts = append(parts, swatch(s)+" "+s)
					continue
				}
			}
			if n, ok := v.AsNumber(); ok {
				parts = append(parts, fmt.Sprintf("%s=%.2f", k, n))
				continue
			}
			parts = append(parts, fmt.Sprintf("%s=%s", k, v))
		}
		lines = append(lines, effectStyle.Render(id+": ")+strings.Join(parts, "  "))
	}
	return lines
}
