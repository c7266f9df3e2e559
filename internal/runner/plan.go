package runner

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/driftworks/driftd/internal/modules"
)

// Entry is one state invocation in a plan document.
type Entry struct {
	Name   string       `yaml:"name" json:"name"`
	State  string       `yaml:"state" json:"state"`
	Params modules.Args `yaml:"params" json:"params,omitempty"`
}

// Plan is a parsed apply document. Test applies dry-run to every entry.
type Plan struct {
	Test   bool    `yaml:"test" json:"test"`
	States []Entry `yaml:"states" json:"states"`
}

// ParsePlan decodes a YAML plan document and checks that every entry names
// a target and a state.
func ParsePlan(raw []byte) (Plan, error) {
	var plan Plan
	if err := yaml.Unmarshal(raw, &plan); err != nil {
		return Plan{}, fmt.Errorf("parse plan: %w", err)
	}
	if len(plan.States) == 0 {
		return Plan{}, fmt.Errorf("parse plan: no states declared")
	}
	for i, entry := range plan.States {
		if strings.TrimSpace(entry.Name) == "" {
			return Plan{}, fmt.Errorf("parse plan: entry %d has no name", i)
		}
		if strings.TrimSpace(entry.State) == "" {
			return Plan{}, fmt.Errorf("parse plan: entry %q has no state", entry.Name)
		}
	}
	return plan, nil
}
