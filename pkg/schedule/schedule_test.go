package schedule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScheduleFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "schedules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	path := writeScheduleFile(t, `
schedules:
  - cron: "*/5 * * * *"
    tenant_id: acme
    agent_type: ops
    goal: check service health
    mode: auto
    input:
      source: scheduler
  - cron: "0 3 * * *"
    tenant_id: acme
    agent_type: billing
    goal: reconcile invoices
`)

	file, err := Load(path)
	require.NoError(t, err)
	require.Len(t, file.Schedules, 2)

	first := file.Schedules[0]
	assert.Equal(t, "*/5 * * * *", first.Cron)
	assert.Equal(t, "acme", first.TenantID)
	assert.Equal(t, "ops", first.AgentType)
	assert.Equal(t, "auto", first.Mode)
	assert.Equal(t, "scheduler", first.Input["source"])

	assert.Empty(t, file.Schedules[1].Mode)
}

func TestLoad_MissingCron(t *testing.T) {
	path := writeScheduleFile(t, `
schedules:
  - tenant_id: acme
    agent_type: ops
    goal: check health
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "cron expression is required")
}

func TestLoad_InvalidCron(t *testing.T) {
	path := writeScheduleFile(t, `
schedules:
  - cron: "every five minutes"
    tenant_id: acme
    agent_type: ops
    goal: check health
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid cron expression")
}

func TestLoad_MissingScope(t *testing.T) {
	path := writeScheduleFile(t, `
schedules:
  - cron: "* * * * *"
    tenant_id: acme
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "tenant_id, agent_type and goal are required")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeScheduleFile(t, "schedules: [")

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse schedule file")
}
