package reaction

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleYAML = `
title: Copper sulfate
apparatus:
  - id: beaker
    model: beaker_250
    position: [0, 1, 0]
    color: "#3366ff"
    points: [1, 2, 3]
    holeCount: 2
  - id: burner
    model: bunsen_burner
    visible: false
    scale: 2
timeline:
  "1":
    description: heat
    duration: 3
    animations:
      - target: beaker
        type: move
        position: [10, 0, 0]
  "0":
    description: pour
    duration: 2
    delay: 0.5
    effects:
      - type: COLOR_LERP
        target: beaker
        durationSteps: 2
        startValue: "#ff0000"
        endValue: "#0000ff"
        intensity: 0.8
    transformations:
      - target: burner
        visible: true
        newModel: bunsen_burner_lit
`

// TestParse_Document tests decoding of a complete document
func TestParse_Document(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if doc.Title != "Copper sulfate" {
		t.Errorf("Title = %q, want %q", doc.Title, "Copper sulfate")
	}
	if len(doc.Apparatus) != 2 {
		t.Fatalf("len(Apparatus) = %d, want 2", len(doc.Apparatus))
	}

	beaker := doc.Apparatus[0]
	if beaker.Position != (Vec3{0, 1, 0}) {
		t.Errorf("beaker position = %v, want [0 1 0]", beaker.Position)
	}
	if beaker.Scale != (Vec3{1, 1, 1}) {
		t.Errorf("beaker scale = %v, want default [1 1 1]", beaker.Scale)
	}
	if !beaker.Visible {
		t.Error("beaker should default to visible")
	}
	if got, _ := beaker.Extra["color"].AsString(); got != "#3366ff" {
		t.Errorf("beaker extra color = %q, want #3366ff", got)
	}
	if got, ok := beaker.Extra["points"].AsNumbers(); !ok || len(got) != 3 {
		t.Errorf("beaker extra points = %v, want 3 numbers", beaker.Extra["points"])
	}
	if got, _ := beaker.Extra["holeCount"].AsNumber(); got != 2 {
		t.Errorf("beaker extra holeCount = %v, want 2", got)
	}
	if _, ok := beaker.Extra["id"]; ok {
		t.Error("core field id leaked into Extra")
	}

	burner := doc.Apparatus[1]
	if burner.Visible {
		t.Error("burner should be invisible")
	}
	if burner.Scale != (Vec3{2, 2, 2}) {
		t.Errorf("burner scale = %v, want uniform 2", burner.Scale)
	}
}

// TestParse_TimelineOrdering tests that mapping keys are ordered numerically
func TestParse_TimelineOrdering(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if doc.Timeline.Len() != 2 {
		t.Fatalf("Timeline.Len() = %d, want 2", doc.Timeline.Len())
	}
	for i, step := range doc.Timeline.Steps {
		if step.Index != i {
			t.Errorf("Steps[%d].Index = %d, want %d", i, step.Index, i)
		}
	}

	first := doc.Timeline.Steps[0]
	if first.Description != "pour" {
		t.Errorf("first step = %q, want pour", first.Description)
	}
	if first.Span() != 2.5 {
		t.Errorf("first step span = %v, want 2.5", first.Span())
	}
	if len(first.Effects) != 1 {
		t.Fatalf("first step effects = %d, want 1", len(first.Effects))
	}

	effect := first.Effects[0]
	if effect.Window() != 2 {
		t.Errorf("effect window = %d, want 2", effect.Window())
	}
	if s, _ := effect.StartValue.AsString(); s != "#ff0000" {
		t.Errorf("effect start = %q, want #ff0000", s)
	}
	if v, _ := effect.Extra["intensity"].AsNumber(); v != 0.8 {
		t.Errorf("effect extra intensity = %v, want 0.8", v)
	}

	tr := first.Transformations[0]
	if tr.Visible == nil || !*tr.Visible {
		t.Error("transformation visible should be set to true")
	}
	if tr.NewModel == nil || *tr.NewModel != "bunsen_burner_lit" {
		t.Errorf("transformation newModel = %v, want bunsen_burner_lit", tr.NewModel)
	}

	anim := doc.Timeline.Steps[1].Animations[0]
	if anim.Position == nil || *anim.Position != (Vec3{10, 0, 0}) {
		t.Errorf("animation position = %v, want [10 0 0]", anim.Position)
	}
	if anim.RotateSpeed() != 1 {
		t.Errorf("default rotate speed = %v, want 1", anim.RotateSpeed())
	}
}

// TestParse_JSON tests that editor JSON exports decode through the same path
func TestParse_JSON(t *testing.T) {
	data := `{
  "apparatus": [{"id": "flask", "model": "erlenmeyer", "rotation": {"x": 1.5}}],
  "timeline": {
    "0": {"duration": 2, "delay": 0},
    "1": {"duration": 3, "delay": 0, "disabled": true}
  }
}`
	doc, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if doc.Apparatus[0].Rotation != (Vec3{1.5, 0, 0}) {
		t.Errorf("rotation = %v, want [1.5 0 0]", doc.Apparatus[0].Rotation)
	}
	if !doc.Timeline.Steps[1].Disabled {
		t.Error("step 1 should be disabled")
	}
}

// TestParse_TimelineSequence tests the sequence form of a timeline
func TestParse_TimelineSequence(t *testing.T) {
	doc, err := Parse([]byte("timeline:\n  - duration: 1\n  - duration: 4\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if doc.Timeline.Len() != 2 || doc.Timeline.Steps[1].Index != 1 || doc.Timeline.Steps[1].Duration != 4 {
		t.Errorf("unexpected steps: %+v", doc.Timeline.Steps)
	}
}

// TestParse_InvalidKeys tests that non-ordinal keys are skipped rather than fatal
func TestParse_InvalidKeys(t *testing.T) {
	doc, err := Parse([]byte("timeline:\n  intro: {duration: 1}\n  \"-1\": {duration: 1}\n  \"2\": {duration: 1}\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if doc.Timeline.Len() != 1 || doc.Timeline.Steps[0].Index != 2 {
		t.Errorf("unexpected steps: %+v", doc.Timeline.Steps)
	}
}

// TestParse_Empty tests that empty input yields an empty document
func TestParse_Empty(t *testing.T) {
	doc, err := Parse([]byte("  \n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if doc == nil || len(doc.Apparatus) != 0 || doc.Timeline.Len() != 0 {
		t.Errorf("expected empty document, got %+v", doc)
	}
}

// TestParse_Malformed tests that broken YAML reports an error
func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte("apparatus: [")); err == nil {
		t.Error("expected error for malformed input")
	}
}

// TestParse_QuotedScalars tests that numbers and booleans written as strings
// still decode, and that unreadable ones fall back to defaults
func TestParse_QuotedScalars(t *testing.T) {
	input := `{
  "apparatus": [{"id": "flask", "model": "flask"}],
  "timeline": {
    "0": {
      "duration": "2", "delay": " 0.5 ", "disabled": "false",
      "effects": [{"type": "smoke", "durationSteps": "3", "disabled": "true"}],
      "transformations": [{"target": "flask", "visible": "false"}],
      "animations": [{"target": "flask", "type": "rotate", "speed": "0.5"}]
    },
    "1": {
      "duration": "soon", "delay": [1],
      "effects": [{"type": "gas", "durationSteps": "many"}],
      "transformations": [{"target": "flask", "visible": "maybe"}],
      "animations": [{"target": "flask", "type": "rotate", "speed": "fast"}]
    },
    "2": {"duration": 3}
  }
}`
	doc, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if doc.Timeline.Len() != 3 {
		t.Fatalf("Timeline.Len() = %d, want 3", doc.Timeline.Len())
	}

	s0 := doc.Timeline.Steps[0]
	if s0.Duration != 2 || s0.Delay != 0.5 || s0.Disabled {
		t.Errorf("step 0 = duration %g delay %g disabled %v, want 2 0.5 false", s0.Duration, s0.Delay, s0.Disabled)
	}
	if e := s0.Effects[0]; e.DurationSteps != 3 || !e.Disabled {
		t.Errorf("step 0 effect = durationSteps %d disabled %v, want 3 true", e.DurationSteps, e.Disabled)
	}
	if v := s0.Transformations[0].Visible; v == nil || *v {
		t.Errorf("step 0 transformation visible = %v, want false", v)
	}
	if got := s0.Animations[0].RotateSpeed(); got != 0.5 {
		t.Errorf("step 0 rotate speed = %g, want 0.5", got)
	}
	if len(s0.Malformed) != 0 {
		t.Errorf("step 0 Malformed = %v, want none", s0.Malformed)
	}

	s1 := doc.Timeline.Steps[1]
	if s1.Duration != 0 || s1.Delay != 0 {
		t.Errorf("step 1 = duration %g delay %g, want 0 0", s1.Duration, s1.Delay)
	}
	if w := s1.Effects[0].Window(); w != 1 {
		t.Errorf("step 1 effect window = %d, want 1", w)
	}
	if s1.Transformations[0].Visible != nil {
		t.Error("step 1 transformation visible should be unset")
	}
	if got := s1.Animations[0].RotateSpeed(); got != 1 {
		t.Errorf("step 1 rotate speed = %g, want 1", got)
	}
	want := map[string]bool{
		"duration":                   true,
		"delay":                      true,
		"effects[0].durationSteps":   true,
		"transformations[0].visible": true,
		"animations[0].speed":        true,
	}
	if len(s1.Malformed) != len(want) {
		t.Errorf("step 1 Malformed = %v, want %d fields", s1.Malformed, len(want))
	}
	for _, f := range s1.Malformed {
		if !want[f] {
			t.Errorf("unexpected malformed field %q", f)
		}
	}

	if d := doc.Timeline.Steps[2].Duration; d != 3 {
		t.Errorf("step 2 duration = %g, want 3", d)
	}

	reported := 0
	for _, issue := range doc.Validate() {
		if issue.Step == 1 && strings.HasPrefix(issue.Message, "malformed ") {
			reported++
		}
	}
	if reported != len(want) {
		t.Errorf("Validate() reported %d malformed fields, want %d", reported, len(want))
	}
}

// TestParse_QuotedScalarsSequence tests lenient fields in a sequence timeline
func TestParse_QuotedScalarsSequence(t *testing.T) {
	doc, err := Parse([]byte("timeline:\n  - duration: \"1.5\"\n  - duration: 2\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if d := doc.Timeline.Steps[0].Duration; d != 1.5 {
		t.Errorf("step 0 duration = %g, want 1.5", d)
	}
}

// TestParseFile tests reading from disk
func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reaction.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if doc.Timeline.Len() != 2 {
		t.Errorf("Timeline.Len() = %d, want 2", doc.Timeline.Len())
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// TestMarshal_PreservesExtras tests that unknown fields survive an encode cycle
func TestMarshal_PreservesExtras(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	data, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	again, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error: %v\n%s", err, data)
	}

	if !again.Apparatus[0].Extra["color"].Equal(String("#3366ff")) {
		t.Errorf("color extra lost: %v", again.Apparatus[0].Extra["color"])
	}
	if !again.Apparatus[0].Extra["points"].Equal(Numbers(1, 2, 3)) {
		t.Errorf("points extra lost: %v", again.Apparatus[0].Extra["points"])
	}
	if again.Timeline.Len() != 2 || again.Timeline.Steps[0].Description != "pour" {
		t.Errorf("timeline not preserved: %+v", again.Timeline.Steps)
	}
	if again.Apparatus[1].Visible {
		t.Error("burner visibility not preserved")
	}
}
