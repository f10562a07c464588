package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"jordanella.com/desktop-pilot/internal/config"
	"jordanella.com/desktop-pilot/internal/cv"
	"jordanella.com/desktop-pilot/internal/input"
	"jordanella.com/desktop-pilot/internal/journal"
	"jordanella.com/desktop-pilot/internal/logging"
	"jordanella.com/desktop-pilot/internal/motion"
	"jordanella.com/desktop-pilot/internal/script"
	"jordanella.com/desktop-pilot/pkg/templates"
)

// app holds what every command needs: configuration, logging and the
// loaded scripts and templates
type app struct {
	config    *config.Config
	logger    *logging.Logger
	templates *templates.TemplateRegistry
	scripts   *script.Registry
}

func loadApp() (*app, error) {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Host)
	if err != nil {
		return nil, err
	}

	a := &app{config: cfg, logger: logger}
	if err := a.loadTemplates(); err != nil {
		return nil, err
	}
	if err := a.loadScripts(); err != nil {
		return nil, err
	}
	return a, nil
}

func newLogger(host config.HostConfig) (*logging.Logger, error) {
	level, err := logging.ParseLevel(host.LogLevel)
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger("pilot").SetOutput(os.Stderr).SetMinLevel(level)
	if strings.EqualFold(host.LogFormat, "json") {
		logger.SetFormatter(&logging.JSONFormatter{})
	}
	return logger, nil
}

func (a *app) loadTemplates() error {
	file := a.config.Host.TemplatesFile
	a.templates = templates.NewTemplateRegistry(filepath.Dir(file), a.logger.Named("templates"))

	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		a.logger.WarnWithContext("no templates file, image steps are unavailable", map[string]interface{}{
			"file": file,
		})
		return nil
	}
	return a.templates.LoadFromFile(file)
}

func (a *app) loadScripts() error {
	a.scripts = script.NewRegistry()
	registerBuiltins(a.scripts)

	dir := a.config.Host.ScriptsDir
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		a.logger.WarnWithContext("no scripts directory", map[string]interface{}{"dir": dir})
		return nil
	}

	n, err := a.scripts.LoadDirectory(dir, a.templates)
	if err != nil {
		return err
	}
	a.logger.InfoWithContext("scripts loaded", map[string]interface{}{
		"dir":   dir,
		"count": n,
	})
	return nil
}

// newEnv wires the real devices. The returned cleanup releases the OCR
// engine.
func (a *app) newEnv(matcher string, seed int64) (*script.Env, func(), error) {
	sink := input.NewRobotSink()

	mover, err := motion.NewMover(sink, a.config.Motion,
		motion.WithSource(motion.NewSource(seed)),
		motion.WithLogger(a.logger.Named("motion")))
	if err != nil {
		return nil, nil, err
	}

	clickerSeed := seed
	if clickerSeed != 0 {
		clickerSeed++
	}
	clicker, err := input.NewClicker(mover, sink,
		input.WithClickSource(motion.NewSource(clickerSeed)),
		input.WithClickLogger(a.logger.Named("click")))
	if err != nil {
		return nil, nil, err
	}

	engineOptions := []cv.EngineOption{
		cv.WithLogger(a.logger.Named("cv")),
		cv.WithTemplateSource(a.templates.ImageCache()),
	}
	switch matcher {
	case "", "surface":
	case "opencv":
		m, err := opencvMatcher()
		if err != nil {
			return nil, nil, err
		}
		engineOptions = append(engineOptions, cv.WithMatcher(m))
	default:
		return nil, nil, fmt.Errorf("unknown matcher %q (want surface or opencv)", matcher)
	}

	engine, err := cv.NewEngine(cv.NewScreenCapturer(), a.config.Vision, engineOptions...)
	if err != nil {
		return nil, nil, err
	}

	env := &script.Env{
		Mover:     mover,
		Engine:    engine,
		Keyboard:  input.NewKeyboard(sink, a.logger.Named("keyboard")),
		Clicker:   clicker,
		Templates: a.templates,
		Logger:    a.logger.Named("script"),
		Defaults: script.Defaults{
			MoveDuration:  a.config.Host.MoveDuration,
			MinConfidence: a.config.Host.MinConfidence,
			PollInterval:  a.config.Host.PollInterval,
		},
	}

	cleanup := func() {
		if err := engine.Close(); err != nil {
			a.logger.Error("failed to release OCR engine", err)
		}
		a.templates.UnloadAll()
	}
	return env, cleanup, nil
}

// openJournal returns nil when journaling is disabled or unavailable
func (a *app) openJournal() *journal.Journal {
	path := a.config.Host.JournalPath
	if path == "" {
		return nil
	}
	j, err := journal.Open(path, a.logger.Named("journal"))
	if err != nil {
		a.logger.ErrorWithContext("journal unavailable, runs are not recorded", err, map[string]interface{}{
			"path": path,
		})
		return nil
	}
	return j
}
