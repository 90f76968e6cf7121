package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"signal-backend/internal/usecase"
)

type MarketDataHandler struct {
	svc *usecase.MarketDataService
}

func NewMarketDataHandler(svc *usecase.MarketDataService) *MarketDataHandler {
	return &MarketDataHandler{svc: svc}
}

// Quote handles GET /api/market-data/{symbol}
func (h *MarketDataHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Quote(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, Response{Success: false, Error: err.Error()})
		return
	}
	writeData(w, http.StatusOK, q)
}

// QuoteMany handles GET /api/market-data?symbols=XAUUSD,EURUSD
func (h *MarketDataHandler) QuoteMany(w http.ResponseWriter, r *http.Request) {
	symbols := strings.Split(r.URL.Query().Get("symbols"), ",")
	results, err := h.svc.QuoteMany(r.Context(), symbols)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, results)
}
