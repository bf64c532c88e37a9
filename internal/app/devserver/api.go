package devserver

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

// New builds the chi mux of the development stub with all operations
// registered through huma.
func New(store *Store, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("SiteKeeper Dev API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	api := humachi.New(mux, config)

	handler := NewHandler(store, log)
	handler.SetupRoutes(api)

	return mux
}
