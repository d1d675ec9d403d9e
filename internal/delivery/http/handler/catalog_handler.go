package handler

import (
	"net/http"

	"medconsult-api/internal/usecase"
	"medconsult-api/pkg/response"

	"github.com/gorilla/mux"
)

type CatalogHandler struct {
	catalogUsecase usecase.CatalogUsecase
}

func NewCatalogHandler(catalogUsecase usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{catalogUsecase: catalogUsecase}
}

func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "Services retrieved successfully", h.catalogUsecase.ListServices(r.Context()))
}

// GetService accepts the display name or the slug.
func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	service, err := h.catalogUsecase.GetService(r.Context(), mux.Vars(r)["type"])
	if err != nil {
		writeError(w, err, "Failed to get service")
		return
	}

	response.Success(w, http.StatusOK, "Service retrieved successfully", service)
}
