package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/strategos-ai/orchestrator/internal/listings"
)

const maxSearchResults = 10

// StocksHandler serves ticker/company search over the listings index.
type StocksHandler struct {
	index  *listings.Index
	logger *zap.Logger
}

// NewStocksHandler creates the stocks HTTP handler. index may be nil
// when no listings snapshot is configured; searches then return 503.
func NewStocksHandler(index *listings.Index, logger *zap.Logger) *StocksHandler {
	return &StocksHandler{index: index, logger: logger}
}

// RegisterRoutes attaches the stocks endpoints to mux.
func (h *StocksHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/stocks/search", h.handleSearch)
}

type searchResponse struct {
	Query   string           `json:"query"`
	Results []listings.Match `json:"results"`
}

func (h *StocksHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		sendError(w, h.logger, http.StatusBadRequest, "query parameter q is required")
		return
	}
	if len(q) > 50 {
		sendError(w, h.logger, http.StatusBadRequest, "query too long")
		return
	}
	if h.index == nil || h.index.Len() == 0 {
		sendError(w, h.logger, http.StatusServiceUnavailable, "stock listings not available")
		return
	}

	results := h.index.Search(q, maxSearchResults)
	if results == nil {
		results = []listings.Match{}
	}
	sendJSON(w, h.logger, http.StatusOK, searchResponse{Query: q, Results: results})
}
