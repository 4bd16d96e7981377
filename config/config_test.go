package config

import (
	"os"
	"path/filepath"
	"testing"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `store:
  addr: "127.0.0.1:9123"
  path: "queue.db"
  embedded: true
site:
  name: "summit"
  latitude_deg: 19.825
  longitude_deg: -155.476
  elevation_m: 4139
  timezone: "Pacific/Honolulu"
scheduler:
  strategy: "global"
  tie_break: "weight"
pass:
  night_start: "18:30"
  night_hours: 10.5
  slot_minutes: 30
  filters: ["g", "r", "i"]
  interval_minutes: 15
mqtt:
  broker: "tcp://localhost:1883"
  client_id: "nightq"
  username: "queue"
  password: "pass"
  update_topic: "nightq/schedule/update"
  ack_topic: "nightq/schedule/ack"
  use_tls: false
notify:
  enabled: true
  ack_timeout_seconds: 5
metrics:
  sinks:
    - type: "nop"
api:
  enabled: true
  addr: ":8085"
  token: "secret"
passlog:
  backend: "sqlite"
  path: "passes.db"
ephemeris:
  type: "horizon"
  conf:
    min_elevation_deg: 20
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"store.addr", cfg.Store.Addr, "127.0.0.1:9123"},
		{"store.embedded", cfg.Store.Embedded, true},
		{"site.name", cfg.Site.Name, "summit"},
		{"site.timezone", cfg.Site.Timezone, "Pacific/Honolulu"},
		{"scheduler.strategy", cfg.Scheduler.Strategy, "global"},
		{"scheduler.tie_break", cfg.Scheduler.TieBreak, "weight"},
		{"scheduler.horizon_default", cfg.Scheduler.UrgencyHorizonMinutes, 240},
		{"pass.night_start", cfg.Pass.NightStart, "18:30"},
		{"pass.slot_minutes", cfg.Pass.SlotMinutes, 30},
		{"pass.filters", len(cfg.Pass.Filters), 3},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.client_id", cfg.MQTT.ClientID, "nightq"},
		{"mqtt.update_topic", cfg.MQTT.UpdateTopic, "nightq/schedule/update"},
		{"mqtt.use_tls", cfg.MQTT.UseTLS, false},
		{"notify.ack_timeout", cfg.Notify.AckTimeoutSeconds, 5},
		{"metrics.sinks", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"api.token", cfg.API.Token, "secret"},
		{"passlog.backend", cfg.PassLog.Backend, "sqlite"},
		{"ephemeris.type", cfg.Ephemeris.Type, "horizon"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{"site": {"latitude_deg": 19.8, "longitude_deg": -155.5}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Store.Addr == "" || cfg.Store.Path == "" {
		t.Errorf("store defaults missing: %+v", cfg.Store)
	}
	if cfg.Scheduler.Strategy != "greedy" || cfg.Scheduler.TieBreak != "urgency" {
		t.Errorf("scheduler defaults missing: %+v", cfg.Scheduler)
	}
	if cfg.Pass.NightStart != "19:00" || cfg.Pass.SlotMinutes != 30 {
		t.Errorf("pass defaults missing: %+v", cfg.Pass)
	}
	if cfg.PassLog.Backend != "jsonl" {
		t.Errorf("passlog default missing: %+v", cfg.PassLog)
	}
	if cfg.Site.Timezone != "UTC" {
		t.Errorf("site timezone default missing: %+v", cfg.Site)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("store:\n  addr: \"127.0.0.1:9123\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("NQ_STORE__ADDR", "10.0.0.5:9200")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Store.Addr != "10.0.0.5:9200" {
		t.Errorf("env override ignored: %s", cfg.Store.Addr)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		yaml string
	}{
		{"bad latitude", "site:\n  latitude_deg: 120\n"},
		{"bad timezone", "site:\n  timezone: \"Mars/Olympus\"\n"},
		{"bad strategy", "scheduler:\n  strategy: \"random\"\n"},
		{"bad night start", "pass:\n  night_start: \"25:99\"\n"},
		{"bad passlog backend", "passlog:\n  backend: \"csv\"\n"},
	}
	for _, tc := range cases {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected unsupported format error")
	}
}
