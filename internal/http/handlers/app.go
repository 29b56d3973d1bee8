package handlers

import (
	"encoding/json"
	"net/http"

	"dreamapp/internal/domain"
	"dreamapp/internal/infra"
	"dreamapp/internal/orchestrator"
	"dreamapp/internal/trace"
)

// App is the handler container: all route methods hang off it so the router
// can be built from one injected dependency set, and tests can substitute
// fakes without process-wide state.
type App struct {
	Pipeline   *orchestrator.Pipeline
	Tracker    *orchestrator.Tracker
	Recorder   *trace.Recorder
	Businesses domain.BusinessRepository
	Media      domain.MediaRepository
	Artifacts  domain.ArtifactRepository
	Logger     infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}
