package bot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
telegram:
  token: "123:abc"
  admin_id: 42
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Broadcast.Weekday != int(time.Friday) || cfg.Broadcast.Hour != 18 {
		t.Fatalf("broadcast defaults = %+v", cfg.Broadcast)
	}
	if cfg.Broadcast.MissThreshold != 3 {
		t.Fatalf("miss threshold = %d, want 3", cfg.Broadcast.MissThreshold)
	}
	if cfg.Broadcast.Timezone != "Europe/Moscow" {
		t.Fatalf("timezone = %q", cfg.Broadcast.Timezone)
	}
	if cfg.Storage.PostersDir != "./posters" {
		t.Fatalf("posters dir = %q", cfg.Storage.PostersDir)
	}
	if cfg.API.Listen != ":8080" {
		t.Fatalf("api listen = %q", cfg.API.Listen)
	}
	if _, err := cfg.Location(); err != nil {
		t.Fatalf("Location: %v", err)
	}
}

func TestLoadConfigYAMLOverridesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig+`
broadcast:
  weekday: 0
  hour: 11
  minute: 30
  timezone: UTC
  miss_threshold: 5
api:
  listen: ":9090"
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Broadcast.Weekday != 0 || cfg.Broadcast.Hour != 11 || cfg.Broadcast.Minute != 30 {
		t.Fatalf("broadcast = %+v", cfg.Broadcast)
	}
	if cfg.Broadcast.MissThreshold != 5 {
		t.Fatalf("miss threshold = %d", cfg.Broadcast.MissThreshold)
	}
	if cfg.API.Listen != ":9090" {
		t.Fatalf("api listen = %q", cfg.API.Listen)
	}
}

func TestLoadConfigEnvOverridesYAML(t *testing.T) {
	t.Setenv("WEEKLY_HOUR", "21")
	t.Setenv("CHANNEL_USERNAME", "@party")

	cfg, err := LoadConfig(writeConfig(t, minimalConfig+`
broadcast:
  hour: 18
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Broadcast.Hour != 21 {
		t.Fatalf("hour = %d, want env override 21", cfg.Broadcast.Hour)
	}
	if cfg.Channels.Channel != "@party" {
		t.Fatalf("channel = %q", cfg.Channels.Channel)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		desc string
		body string
		want string
	}{
		{
			desc: "weekday out of range",
			body: minimalConfig + "broadcast:\n  weekday: 7\n",
			want: "broadcast.weekday",
		},
		{
			desc: "hour out of range",
			body: minimalConfig + "broadcast:\n  hour: 24\n",
			want: "broadcast.hour",
		},
		{
			desc: "minute out of range",
			body: minimalConfig + "broadcast:\n  minute: 60\n",
			want: "broadcast.minute",
		},
		{
			desc: "bad timezone",
			body: minimalConfig + "broadcast:\n  timezone: Mars/Olympus\n",
			want: "timezone",
		},
		{
			desc: "empty posters dir",
			body: minimalConfig + "storage:\n  posters_dir: \"\"\n",
			want: "posters_dir",
		},
	}
	for _, tc := range cases {
		_, err := LoadConfig(writeConfig(t, tc.body))
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Errorf("%s: err = %v, want mention of %q", tc.desc, err, tc.want)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
