package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jordanella.com/desktop-pilot/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func useConfig(t *testing.T, path string) {
	t.Helper()
	oldConfig, oldEnv := configPath, envFile
	configPath, envFile = path, ""
	t.Cleanup(func() { configPath, envFile = oldConfig, oldEnv })
}

func TestLoadApp(t *testing.T) {
	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	templatesFile := filepath.Join(dir, "templates", "templates.yaml")

	writeFile(t, templatesFile, "templates:\n  - name: ok\n    path: ok.png\n")
	writeFile(t, filepath.Join(scripts, "confirm.yaml"), "description: press ok\nsteps:\n  - action: click_image\n    template: ok\n")
	writeFile(t, filepath.Join(dir, "pilot.ini"), "[host]\nscriptsDir = "+scripts+"\ntemplatesFile = "+templatesFile+"\nlogLevel = error\n")
	useConfig(t, filepath.Join(dir, "pilot.ini"))

	a, err := loadApp()
	if err != nil {
		t.Fatalf("loadApp returned error: %v", err)
	}

	if got := strings.Join(a.scripts.List(), ","); got != "confirm,read_screen" {
		t.Errorf("scripts = %s", got)
	}
	if a.scripts.Describe("confirm") != "press ok" {
		t.Errorf("description = %q", a.scripts.Describe("confirm"))
	}
	if tmpl, ok := a.templates.Get("ok"); !ok || tmpl.Path != filepath.Join(dir, "templates", "ok.png") {
		t.Errorf("template = %+v, %v", tmpl, ok)
	}
}

func TestLoadAppRejectsUnknownTemplate(t *testing.T) {
	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")

	writeFile(t, filepath.Join(scripts, "broken.yaml"), "steps:\n  - action: find_image\n    template: missing\n")
	writeFile(t, filepath.Join(dir, "pilot.ini"), "[host]\nscriptsDir = "+scripts+"\ntemplatesFile = "+filepath.Join(dir, "none.yaml")+"\nlogLevel = error\n")
	useConfig(t, filepath.Join(dir, "pilot.ini"))

	if _, err := loadApp(); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Errorf("err = %v, want unknown template error", err)
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := newLogger(config.HostConfig{LogLevel: "debug", LogFormat: "JSON"}); err != nil {
		t.Errorf("newLogger returned error: %v", err)
	}
	if _, err := newLogger(config.HostConfig{LogLevel: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}
