package api

import (
	"net/http"

	"github.com/shaiso/Pipedeck/internal/catalog"
)

// GetCatalog возвращает каталог пайплайнов и этапов.
// GET /api/v1/catalog
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	cat := h.sel.Catalog()

	Success(w, CatalogResponse{
		Pipelines: cat.Pipelines(),
		Stages:    cat.Stages(),
	})
}

// RefreshCatalog перечитывает каталог с backend.
// POST /api/v1/catalog/refresh
//
// Обновление каталога деструктивно для рабочего пространства:
// выбор и рабочая конфигурация сбрасываются.
func (h *Handler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	resp, err := h.backend.ListStages(r.Context())
	if err != nil {
		h.logger.Error("failed to refresh catalog", "error", err)
		Error(w, http.StatusBadGateway, ErrCodeInternalError, "backend unavailable")
		return
	}

	cat := catalog.New(resp.Pipelines, resp.Stages)
	h.sel.SetCatalog(cat)
	h.cfg.ClearAll()

	h.logger.Info("catalog refreshed",
		"pipelines", len(resp.Pipelines),
		"stages", len(resp.Stages),
	)

	Success(w, CatalogResponse{
		Pipelines: cat.Pipelines(),
		Stages:    cat.Stages(),
	})
}
