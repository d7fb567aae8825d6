package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gonewx/chemlab/internal/reaction"
	"github.com/gonewx/chemlab/pkg/config"
	"github.com/gonewx/chemlab/pkg/library"
	"github.com/gonewx/chemlab/pkg/player"
)

const uiDoc = `
title: Flame test
apparatus:
  - id: dish
    model: evaporating_dish
timeline:
  "0":
    description: ignite
    duration: 2
    effects:
      - {type: COLOR_LERP, target: dish, startValue: "#ff0000", endValue: "#0000ff"}
  "1": {description: observe, duration: 3}
`

func newModel(t *testing.T, settings *library.SettingsStore) Model {
	t.Helper()
	doc, err := reaction.Parse([]byte(uiDoc))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return New(player.New(nil, doc, nil), settings)
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model
}

func TestTickAdvancesPlayback(t *testing.T) {
	m := newModel(t, nil)
	m = update(t, m, key(" "))
	if !m.player.Playing() {
		t.Fatal("expected player to be playing after space")
	}

	start := time.Unix(1000, 0)
	m = update(t, m, tickMsg(start))
	if m.player.Progress() != 0 {
		t.Fatalf("first tick should not advance, got %v", m.player.Progress())
	}
	m = update(t, m, tickMsg(start.Add(time.Second)))
	if got := m.player.Progress(); got < 0.199 || got > 0.201 {
		t.Fatalf("expected progress 0.2 after one second, got %v", got)
	}
	if m.frame == nil || m.frame.Position.StepIndex != 0 {
		t.Fatalf("expected frame at step 0, got %+v", m.frame)
	}
}

func TestKeysControlPlayer(t *testing.T) {
	m := newModel(t, nil)

	m = update(t, m, key("l"))
	if !m.player.Loop() {
		t.Error("expected loop after l")
	}
	m = update(t, m, key("+"))
	if m.player.Speed() != speedFactor {
		t.Errorf("expected speed %v, got %v", speedFactor, m.player.Speed())
	}
	m = update(t, m, key("-"))
	if m.player.Speed() != 1 {
		t.Errorf("expected speed 1, got %v", m.player.Speed())
	}
	m = update(t, m, key("n"))
	if !m.player.Scrubbing() {
		t.Error("expected n to start a smooth seek")
	}
	m = update(t, m, key("r"))
	if m.player.Scrubbing() || m.player.Progress() != 0 {
		t.Error("expected r to restart immediately")
	}
	m = update(t, m, key("right"))
	if !m.player.Scrubbing() {
		t.Error("expected right arrow to start a smooth seek")
	}
}

func TestQuitSavesSettings(t *testing.T) {
	store := library.NewSettingsStore(nil, config.DefaultPlaybackConfig().Playback)
	m := newModel(t, store)

	m = update(t, m, key("+"))
	m = update(t, m, key("l"))
	m = update(t, m, key("q"))

	if !m.quitting {
		t.Fatal("expected quitting after q")
	}
	if m.View() != "" {
		t.Error("expected empty view after quit")
	}
	got := store.Settings()
	if got.Speed != speedFactor || !got.Loop {
		t.Errorf("expected saved speed %v loop true, got %+v", speedFactor, got)
	}
}

func TestViewShowsStepAndEffects(t *testing.T) {
	m := newModel(t, nil)
	m.player.Seek(0.2)
	m = update(t, m, tickMsg(time.Unix(1000, 0)))

	view := m.View()
	for _, want := range []string{"Flame test", "step 1/2", "ignite", "dish:", "#", "paused"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestWindowSizeClampsBar(t *testing.T) {
	m := newModel(t, nil)

	m = update(t, m, tea.WindowSizeMsg{Width: 200, Height: 40})
	if m.bar.Width != 60 {
		t.Errorf("expected bar width 60, got %d", m.bar.Width)
	}
	m = update(t, m, tea.WindowSizeMsg{Width: 10, Height: 40})
	if m.bar.Width != 20 {
		t.Errorf("expected bar width 20, got %d", m.bar.Width)
	}
}
