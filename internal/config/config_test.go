package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConfig(t *testing.T) {
	Convey("DefaultConfig", t, func() {
		cfg := DefaultConfig()
		So(cfg.Run.RecursionLimit, ShouldEqual, 10)
		So(cfg.Logging.Level, ShouldEqual, "info")
		So(cfg.Notify.URL, ShouldEqual, "nats://127.0.0.1:4222")
	})

	Convey("DriverSettings flattens per-class option maps", t, func() {
		cfg := DefaultConfig()
		cfg.Drivers["VaultDriver"] = map[string]interface{}{"address": "https://vault.example.com", "skip_verify": true}
		flat := cfg.DriverSettings()
		So(flat["VaultDriver.address"], ShouldEqual, "https://vault.example.com")
		So(flat["VaultDriver.skip_verify"], ShouldEqual, true)
	})

	Convey("Manager.Load parses YAML and applies env overrides", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "motor.yaml")
		So(os.WriteFile(path, []byte("version: \"2.0\"\nlogging:\n  level: debug\n"), 0644), ShouldBeNil)

		os.Setenv("MOTOR_LOG_LEVEL", "warn")
		defer os.Unsetenv("MOTOR_LOG_LEVEL")

		m := NewManager()
		err := m.Load(path)
		So(err, ShouldBeNil)

		got := m.Get()
		So(got.Version, ShouldEqual, "2.0")
		So(got.Logging.Level, ShouldEqual, "warn") // env overrides the file
	})

	Convey("OnChange hooks fire after Load", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "motor.yaml")
		So(os.WriteFile(path, []byte("profile: staging\n"), 0644), ShouldBeNil)

		m := NewManager()
		done := make(chan string, 1)
		m.OnChange(func(c *Config) { done <- c.Profile })

		So(m.Load(path), ShouldBeNil)
		So(<-done, ShouldEqual, "staging")
	})
}
