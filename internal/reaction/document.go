package reaction

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// Find returns the index of the apparatus with the given ID, or -1.
func (d *Document) Find(id string) int {
	for i := range d.Apparatus {
		if d.Apparatus[i].ID == id {
			return i
		}
	}
	return -1
}

// NormalizeIDs assigns a fresh UUID to every apparatus without an ID and
// returns the number of IDs assigned. Documents drafted by hand often omit
// IDs for props that are never targeted.
func (d *Document) NormalizeIDs() int {
	assigned := 0
	for i := range d.Apparatus {
		if d.Apparatus[i].ID == "" {
			d.Apparatus[i].ID = uuid.NewString()
			assigned++
		}
	}
	return assigned
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() (*Document, error) {
	var out Document
	if err := copier.CopyWithOption(&out, d, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("failed to clone document: %w", err)
	}
	return &out, nil
}

// Issue is an authoring problem found by Validate. Issues never stop
// playback; they exist so editors and tools can warn.
type Issue struct {
	// Step is the step index, or -1 for document-level issues
	Step    int
	Message string
}

func (i Issue) String() string {
	if i.Step < 0 {
		return i.Message
	}
	return fmt.Sprintf("step %d: %s", i.Step, i.Message)
}

// Validate reports authoring issues: duplicate or empty apparatus IDs,
// index gaps, negative durations, fields reset during decoding, and
// references to unknown apparatus.
func (d *Document) Validate() []Issue {
	var issues []Issue

	ids := make(map[string]bool, len(d.Apparatus))
	for _, a := range d.Apparatus {
		if a.ID == "" {
			issues = append(issues, Issue{Step: -1, Message: fmt.Sprintf("apparatus with model %q has no id", a.Model)})
			continue
		}
		if ids[a.ID] {
			issues = append(issues, Issue{Step: -1, Message: fmt.Sprintf("duplicate apparatus id %q", a.ID)})
		}
		ids[a.ID] = true
	}

	checkRef := func(step int, kind, id string) {
		if id != "" && !ids[id] {
			issues = append(issues, Issue{Step: step, Message: fmt.Sprintf("%s references unknown apparatus %q", kind, id)})
		}
	}

	for i, step := range d.Timeline.Steps {
		if step.Index != i {
			issues = append(issues, Issue{Step: step.Index, Message: fmt.Sprintf("expected step index %d (indices must be contiguous from 0)", i)})
		}
		if step.Duration < 0 {
			issues = append(issues, Issue{Step: step.Index, Message: fmt.Sprintf("negative duration %g treated as 0", step.Duration)})
		}
		if step.Delay < 0 {
			issues = append(issues, Issue{Step: step.Index, Message: fmt.Sprintf("negative delay %g treated as 0", step.Delay)})
		}
		for _, field := range step.Malformed {
			issues = append(issues, Issue{Step: step.Index, Message: fmt.Sprintf("malformed %s reset to its default", field)})
		}
		for _, a := range step.Animations {
			checkRef(step.Index, a.Type+" animation", a.Target)
		}
		for _, t := range step.Transformations {
			checkRef(step.Index, "transformation", t.Target)
		}
		for _, e := range step.Effects {
			if e.DurationSteps < 0 {
				issues = append(issues, Issue{Step: step.Index, Message: fmt.Sprintf("%s effect has durationSteps %d, treated as 1", e.Type, e.DurationSteps)})
			}
			checkRef(step.Index, e.Type+" effect", e.Target)
			checkRef(step.Index, e.Type+" effect source", e.Source)
			checkRef(step.Index, e.Type+" effect aux target", e.AuxTarget)
		}
	}

	for _, g := range d.Atoms {
		if len(g.Starts) != len(g.Ends) {
			issues = append(issues, Issue{Step: -1, Message: fmt.Sprintf("atom group %q has %d starts and %d ends", g.ID, len(g.Starts), len(g.Ends))})
		}
	}

	return issues
}
