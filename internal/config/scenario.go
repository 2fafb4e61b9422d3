package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Step is one line of a scripted run. Exactly one field is set.
type Step struct {
	// Trigger dispatches an event.
	Trigger string `mapstructure:"trigger"`
	// Complete finishes the pending activity registered under that name.
	Complete string `mapstructure:"complete"`
	// Await blocks until the node is part of the active configuration.
	Await string `mapstructure:"await"`
	// Sleep pauses the script.
	Sleep time.Duration `mapstructure:"sleep"`
}

// Scenario is a named list of steps.
type Scenario struct {
	Name  string `mapstructure:"name"`
	Steps []Step `mapstructure:"steps"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a YAML scenario and checks every step.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := decodeYAML(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	for i, step := range sc.Steps {
		if err := step.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &sc, nil
}

func (s Step) validate() error {
	set := 0
	if s.Trigger != "" {
		set++
	}
	if s.Complete != "" {
		set++
	}
	if s.Await != "" {
		set++
	}
	if s.Sleep > 0 {
		set++
	}
	if set != 1 {
		return fmt.Errorf("exactly one of trigger, complete, await or sleep must be set")
	}
	return nil
}

// MarshalYAML renders the step back in its short form.
func (s Step) MarshalYAML() (any, error) {
	switch {
	case s.Trigger != "":
		return map[string]string{"trigger": s.Trigger}, nil
	case s.Complete != "":
		return map[string]string{"complete": s.Complete}, nil
	case s.Await != "":
		return map[string]string{"await": s.Await}, nil
	}
	return map[string]string{"sleep": s.Sleep.String()}, nil
}

// Encode renders the scenario as YAML.
func (sc *Scenario) Encode() ([]byte, error) {
	return yaml.Marshal(map[string]any{"name": sc.Name, "steps": sc.Steps})
}
