package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/stock-transfer/internal/core/command"
	"github.com/rl1809/stock-transfer/internal/core/domain"
	"github.com/rl1809/stock-transfer/internal/core/service"
	"github.com/rl1809/stock-transfer/internal/port"
)

const defaultJournalLimit = 20

type HTTPHandler struct {
	submitter Submitter
	vocab     command.Vocabulary
	journal   port.JournalReader
	logger    *zap.Logger
}

type CommandHTTPRequest struct {
	Command string `json:"command"`
}

type CommandHTTPResponse struct {
	Success    bool   `json:"success"`
	ID         string `json:"id,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Class      string `json:"class,omitempty"`
	Message    string `json:"message"`
	Phase      string `json:"phase,omitempty"`
	RolledBack bool   `json:"rolled_back"`
	Detail     string `json:"detail,omitempty"`
}

type StockHTTPResponse struct {
	Warehouse     map[string]int `json:"warehouse"`
	Shop          map[string]int `json:"shop"`
	WarehouseFree int            `json:"warehouse_free"`
	ShopFree      int            `json:"shop_free"`
}

type JournalEntryHTTP struct {
	ID         string    `json:"id"`
	Verb       string    `json:"verb"`
	Product    string    `json:"product"`
	Amount     int       `json:"amount"`
	Outcome    string    `json:"outcome"`
	RolledBack bool      `json:"rolled_back"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewHTTPHandler wires the HTTP routes to s. journal may be nil, in which
// case GET /api/journal answers 404.
func NewHTTPHandler(s Submitter, vocab command.Vocabulary, journal port.JournalReader, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPHandler{submitter: s, vocab: vocab, journal: journal, logger: logger}
}

// Routes registers every endpoint on mux.
func (h *HTTPHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/command", h.Command)
	mux.HandleFunc("/api/stock", h.Stock)
	mux.HandleFunc("/api/journal", h.Journal)
}

func (h *HTTPHandler) Command(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CommandHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, CommandHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	out, err := h.submitter.Submit(r.Context(), req.Command)
	if err != nil {
		h.writeUnavailable(w, err)
		return
	}

	resp := CommandHTTPResponse{
		Success:    out.Success(),
		ID:         out.ID,
		Message:    Describe(out, h.vocab),
		Phase:      string(out.Phase),
		RolledBack: out.RolledBack,
	}
	status := http.StatusOK
	if !out.Success() {
		kind := out.Kind()
		resp.Kind = string(kind)
		resp.Class = kind.Class().String()
		resp.Detail = out.Err.Error()
		status = httpStatus(kind)
	}
	writeJSON(w, status, resp)
}

func (h *HTTPHandler) Stock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, err := h.submitter.Snapshot(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrDispatcherClosed) || errors.Is(err, context.Canceled) {
			h.writeUnavailable(w, err)
			return
		}
		h.logger.Error("stock_snapshot_failed", zap.Error(err))
		writeJSON(w, httpStatus(domain.KindOf(err)), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, StockHTTPResponse{
		Warehouse:     snap.Warehouse,
		Shop:          snap.Shop,
		WarehouseFree: snap.WarehouseFree,
		ShopFree:      snap.ShopFree,
	})
}

func (h *HTTPHandler) Journal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.journal == nil {
		http.Error(w, "journal not available", http.StatusNotFound)
		return
	}

	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	entries, err := h.journal.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("journal_read_failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "journal read failed"})
		return
	}

	resp := make([]JournalEntryHTTP, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, JournalEntryHTTP{
			ID:         e.ID,
			Verb:       string(e.Verb),
			Product:    e.Product,
			Amount:     e.Amount,
			Outcome:    e.Outcome,
			RolledBack: e.RolledBack,
			CreatedAt:  e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeUnavailable(w http.ResponseWriter, err error) {
	h.logger.Warn("command_not_accepted", zap.Error(err))
	writeJSON(w, http.StatusServiceUnavailable, CommandHTTPResponse{
		Success: false,
		Message: "service is not accepting commands",
		Detail:  err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
