package server

//go:generate swag init -g internal/server/swagger.go -o docs/swagger

// @title VigiLynx API
// @version 1.0
// @description Threat-intelligence scan orchestration: classification, reputation lookups, safety scoring and narrative insights.
// @contact.name VigiLynx Maintainers
// @contact.url https://github.com/vigilynx/vigilynx
// @BasePath /

import (
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/go-chi/chi/v5"
)

// mountSwagger exposes the interactive API docs at /docs when enabled.
func mountSwagger(r chi.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
