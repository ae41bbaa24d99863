package handlers

import (
	"encoding/json"
	"net/http"

	"radiocore/internal/catalog"
	"radiocore/internal/generation"
	"radiocore/internal/infra"
	"radiocore/internal/storage"
)

// App holds the wired services the handlers operate on.
type App struct {
	Cfg        *infra.Config
	Controller *generation.Controller
	Registry   *generation.Registry
	Catalog    *catalog.Catalog
	Store      *storage.FileStore
	Logger     infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) errJSON(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
