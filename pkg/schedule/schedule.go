// Package schedule loads recurring agent run definitions from a YAML file.
package schedule

import (
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Entry is one recurring agent run.
type Entry struct {
	// Cron is a standard five-field cron expression.
	Cron      string         `yaml:"cron"`
	TenantID  string         `yaml:"tenant_id"`
	AgentType string         `yaml:"agent_type"`
	Goal      string         `yaml:"goal"`
	Mode      string         `yaml:"mode"`
	Input     map[string]any `yaml:"input"`
}

// File is the top-level schedule document.
type File struct {
	Schedules []Entry `yaml:"schedules"`
}

// Load reads and validates a schedule file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule file: %w", err)
	}

	var file File

	err = yaml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schedule file: %w", err)
	}

	for i, entry := range file.Schedules {
		if entry.Cron == "" {
			return nil, fmt.Errorf("schedule %d: cron expression is required", i)
		}

		_, err = cron.ParseStandard(entry.Cron)
		if err != nil {
			return nil, fmt.Errorf("schedule %d: invalid cron expression %q: %w", i, entry.Cron, err)
		}

		if entry.TenantID == "" || entry.AgentType == "" || entry.Goal == "" {
			return nil, fmt.Errorf("schedule %d: tenant_id, agent_type and goal are required", i)
		}
	}

	return &file, nil
}
