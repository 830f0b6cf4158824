package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcsv/internal/model"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", cfg.DefaultTimezone)
	assert.Equal(t, model.DefaultWeeks, cfg.DefaultWeeks)
	assert.Equal(t, 56, cfg.HorizonDays)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_timezone: PST
default_weeks: 99
strict: true
refresh: "0 * * * *"
ics:
  - url: https://calendar.example.com/team.ics
    event_type: mentor-swarm
    capacity: 12
  - name: local
    url: ./holidays.ics
basic_auth:
  username: admin
  password: secret
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "PST", cfg.DefaultTimezone)
	assert.Equal(t, model.DefaultWeeks, cfg.DefaultWeeks, "out-of-range weeks fall back to default")
	assert.True(t, cfg.Strict)
	assert.Equal(t, "0 * * * *", cfg.RefreshCron)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "events.csv", cfg.Output)
	require.Len(t, cfg.ICS, 2)
	assert.Equal(t, "https://calendar.example.com/team.ics", cfg.ICS[0].ID)
	assert.Equal(t, model.EventTypeMentorSwarm, cfg.ICS[0].EventType)
	assert.Equal(t, 12, cfg.ICS[0].Capacity)
	assert.Equal(t, "local", cfg.ICS[1].ID)
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "admin", cfg.BasicAuth.Username)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveValidatesArguments(t *testing.T) {
	assert.Error(t, Save("", DefaultConfig()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
	_, err := Load("")
	assert.Error(t, err)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "events.csv")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.DefaultTimezone = "PST"
	cfg.RefreshCron = "*/15 * * * *"
	cfg.ICS = []ICSConfig{{URL: "./team.ics", EventType: model.EventTypeInvestorSwarm}}
	require.NoError(t, cfg.Validate())

	bad := DefaultConfig()
	bad.DefaultTimezone = "Mars/Olympus_Mons"
	bad.LogLevel = "loud"
	bad.HorizonDays = 1000
	bad.RefreshCron = "every tuesday"
	bad.ICS = []ICSConfig{{EventType: "workshop", Capacity: -1}}

	err := bad.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, field := range []string{
		"default_timezone",
		"log_level",
		"horizon_days",
		"refresh",
		"ics[0].url",
		"ics[0].event_type",
		"ics[0].capacity",
	} {
		assert.Contains(t, msg, "config "+field+":")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("EVENTCSV_LISTEN", ":9090")
	t.Setenv("EVENTCSV_DEFAULT_WEEKS", "12")
	t.Setenv("EVENTCSV_STRICT", "true")
	t.Setenv("EVENTCSV_REFRESH", "@hourly")
	t.Setenv("EVENTCSV_BASIC_AUTH_PASSWORD", "hunter2")

	cfg := DefaultConfig()
	ApplyEnv(cfg)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, 12, cfg.DefaultWeeks)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "@hourly", cfg.RefreshCron)
	assert.Equal(t, "America/New_York", cfg.DefaultTimezone, "unset variables are left alone")
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "hunter2", cfg.BasicAuth.Password)
	assert.Empty(t, cfg.BasicAuth.Username)
	assert.NoError(t, cfg.Validate())
}
