package handlers

import (
	"time"

	"rbx-extract/internal/config"
	"rbx-extract/internal/engine"
	"rbx-extract/internal/preview"
)

// Handlers serves the control API on top of one Engine.
type Handlers struct {
	engine    *engine.Engine
	previews  *preview.Generator
	settings  *config.Store
	startTime time.Time
}

// New returns Handlers for eng. Previews are cached under previewDir when it
// is not empty. settings receives alias updates.
func New(eng *engine.Engine, settings *config.Store, previewDir string) *Handlers {
	return &Handlers{
		engine:    eng,
		previews:  preview.NewGenerator(previewDir),
		settings:  settings,
		startTime: time.Now(),
	}
}
