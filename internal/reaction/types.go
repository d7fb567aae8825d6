// Package reaction provides the data structures and parsers for chemistry
// lab reaction documents. A document places apparatus in a scene and
// describes a multi-step reaction timeline whose steps carry animations,
// effects and transformations that the playback engine resolves per frame.
package reaction

// Vec3 is a 3-component float tuple used for position, rotation and scale.
type Vec3 [3]float64

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Document is the root structure of a reaction document as produced by the
// lab editor. It is read-only input to the playback engine.
type Document struct {
	// Title is an opaque label shown by players
	Title string `yaml:"title,omitempty"`

	// Apparatus is the pristine list of placed objects
	Apparatus []Apparatus `yaml:"apparatus"`

	// Timeline is the ordered step map driving playback
	Timeline Timeline `yaml:"timeline"`

	// Atoms lists particle groups visualized by the force integrator
	Atoms []AtomGroup `yaml:"atoms,omitempty"`
}

// Apparatus is one placed object in the lab scene.
//
// Only the core fields are interpreted by the engine. Every other key found
// in the source document is kept in Extra and re-emitted unchanged, so
// renderer-specific fields (points, angle, holeCount, ...) survive a
// decode/encode cycle.
type Apparatus struct {
	// ID is unique within the document and stable across its lifetime
	ID string `yaml:"id"`

	// Model selects a renderer-side visual, e.g. "beaker" or "bunsen_burner"
	Model string `yaml:"model"`

	// Position defaults to [0,0,0]
	Position Vec3 `yaml:"position"`

	// Rotation is in radians and defaults to [0,0,0]
	Rotation Vec3 `yaml:"rotation"`

	// Scale defaults to [1,1,1]
	Scale Vec3 `yaml:"scale"`

	// Visible defaults to true
	Visible bool `yaml:"visible"`

	// Extra holds every field the engine does not understand
	Extra map[string]Value `yaml:",inline"`
}

// NewApparatus returns an apparatus with the documented defaults applied.
func NewApparatus(id, model string) Apparatus {
	return Apparatus{
		ID:      id,
		Model:   model,
		Scale:   Vec3{1, 1, 1},
		Visible: true,
	}
}

// Timeline is the ordered set of reaction steps.
//
// In documents it is written as a mapping from stringified step index to
// step ({"0": {...}, "1": {...}}) or as a plain sequence. Steps are kept
// sorted by Index. Index gaps are an authoring error but never fatal.
type Timeline struct {
	Steps []Step
}

// Len returns the number of steps, including disabled ones.
func (t Timeline) Len() int {
	return len(t.Steps)
}

// Step returns the step with the given index.
func (t Timeline) Step(index int) (Step, bool) {
	for _, s := range t.Steps {
		if s.Index == index {
			return s, true
		}
	}
	return Step{}, false
}

// Step is one ordinal entry of a timeline.
type Step struct {
	// Index is the step ordinal taken from the timeline key
	Index int `yaml:"-"`

	// Description is an opaque label
	Description string `yaml:"description,omitempty"`

	// Duration of the step in time units
	Duration float64 `yaml:"duration"`

	// Delay is added to Duration to form the step span
	Delay float64 `yaml:"delay,omitempty"`

	// Disabled steps contribute no time and are never applied
	Disabled bool `yaml:"disabled,omitempty"`

	Animations      []Animation      `yaml:"animations,omitempty"`
	Effects         []Effect         `yaml:"effects,omitempty"`
	Transformations []Transformation `yaml:"transformations,omitempty"`

	// Malformed lists fields that could not be decoded and were reset to
	// their defaults, e.g. "duration" or "effects[0].durationSteps"
	Malformed []string `yaml:"-"`
}

// Span returns duration + delay with negative components read as zero.
func (s Step) Span() float64 {
	return nonNegative(s.Duration) + nonNegative(s.Delay)
}

func nonNegative(v float64) float64 {
	// NaN compares false, so it is mapped to zero as well
	if !(v > 0) {
		return 0
	}
	return v
}

// Animation types understood by the engine. Unknown types are ignored.
const (
	AnimationMove   = "move"
	AnimationScale  = "scale"
	AnimationRotate = "rotate"
)

// Animation is a transient, step-local, continuously interpolated change.
type Animation struct {
	// Target is the apparatus ID
	Target string `yaml:"target"`

	// Type is one of move, scale, rotate
	Type string `yaml:"type"`

	// Position is the end value of a move
	Position *Vec3 `yaml:"position,omitempty"`

	// Scale is the end value of a scale
	Scale *Vec3 `yaml:"scale,omitempty"`

	// Speed is the rotate rate in half turns per step; nil means 1
	Speed *float64 `yaml:"speed,omitempty"`

	// Duration is informational for the editor and does not affect the math
	Duration float64 `yaml:"duration,omitempty"`

	// Easing names the curve applied to step progress; empty is linear
	Easing string `yaml:"easing,omitempty"`
}

// RotateSpeed returns Speed or its default of 1.
func (a Animation) RotateSpeed() float64 {
	if a.Speed == nil {
		return 1
	}
	return *a.Speed
}

// Effect types with a render state contribution. Other types (smoke, flash,
// gas, flame_interaction, ...) are passed through to the renderer.
const (
	EffectColorLerp       = "COLOR_LERP"
	EffectNumberLerp      = "NUMBER_LERP"
	EffectMorph           = "MORPH"
	EffectGasDisplacement = "GAS_DISPLACEMENT"
)

// Effect is a visual overlay active over a window of steps starting at the
// step it is declared on.
type Effect struct {
	// Type selects the effect, e.g. "smoke" or "COLOR_LERP"
	Type string `yaml:"type"`

	// DurationSteps is the window length in steps; values below 1 mean 1
	DurationSteps int `yaml:"durationSteps,omitempty"`

	// Disabled suppresses the effect entirely
	Disabled bool `yaml:"disabled,omitempty"`

	// Target is the apparatus receiving the overlay
	Target string `yaml:"target,omitempty"`

	// Source is the apparatus gas or liquid is displaced from
	Source string `yaml:"source,omitempty"`

	// AuxTarget is a secondary receiver, e.g. a collecting vessel
	AuxTarget string `yaml:"auxTarget,omitempty"`

	// Property names the overlay field written by lerp effects
	Property string `yaml:"property,omitempty"`

	// StartValue and EndValue are numbers or hex color strings
	StartValue Value `yaml:"startValue,omitempty"`
	EndValue   Value `yaml:"endValue,omitempty"`

	// GAS_DISPLACEMENT channels
	SourceLevel *Channel `yaml:"sourceLevel,omitempty"`
	TargetLevel *Channel `yaml:"targetLevel,omitempty"`
	GasOpacity  *Channel `yaml:"gasOpacity,omitempty"`
	AuxLevel    *Channel `yaml:"auxLevel,omitempty"`

	// Extra carries renderer payload such as colors or intensity
	Extra map[string]Value `yaml:",inline"`
}

// Window returns the effective window length in steps.
func (e Effect) Window() int {
	if e.DurationSteps < 1 {
		return 1
	}
	return e.DurationSteps
}

// Channel is a numeric start/end pair of a multi-channel effect.
type Channel struct {
	Start *float64 `yaml:"start"`
	End   *float64 `yaml:"end"`
}

// Endpoints reports the channel endpoints and whether both are set.
func (c *Channel) Endpoints() (start, end float64, ok bool) {
	if c == nil || c.Start == nil || c.End == nil {
		return 0, 0, false
	}
	return *c.Start, *c.End, true
}

// Transformation is a permanent, discrete, step-triggered mutation.
// Nil fields are left untouched.
type Transformation struct {
	// Target is the apparatus ID
	Target string `yaml:"target"`

	// NewModel replaces the model tag
	NewModel *string `yaml:"newModel,omitempty"`

	// Visible flips visibility
	Visible *bool `yaml:"visible,omitempty"`

	// Scale replaces scale outright
	Scale *Vec3 `yaml:"scale,omitempty"`

	// Color is stored into Extra["color"]
	Color *string `yaml:"color,omitempty"`

	// Position and Rotation replace the corresponding tuples
	Position *Vec3 `yaml:"position,omitempty"`
	Rotation *Vec3 `yaml:"rotation,omitempty"`

	// Properties are discrete sets of extra fields
	Properties map[string]Value `yaml:"properties,omitempty"`
}

// AtomGroup is a set of particles driven by the force integrator from
// Starts[i] toward Ends[i] as global progress advances.
type AtomGroup struct {
	ID     string       `yaml:"id"`
	Label  string       `yaml:"label,omitempty"`
	Starts []Vec3       `yaml:"starts"`
	Ends   []Vec3       `yaml:"ends"`
	Forces *ForceParams `yaml:"forces,omitempty"`
}

// ForceParams overrides integrator parameters for one atom group.
// Nil fields keep the configured defaults.
type ForceParams struct {
	Attraction        *float64 `yaml:"attraction,omitempty"`
	Repulsion         *float64 `yaml:"repulsion,omitempty"`
	RepulsionDistance *float64 `yaml:"repulsionDistance,omitempty"`
	Temperature       *float64 `yaml:"temperature,omitempty"`
	Damping           *float64 `yaml:"damping,omitempty"`
}
