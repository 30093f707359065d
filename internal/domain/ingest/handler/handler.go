// Package handler exposes the ingestion pipeline over JSON HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/pennyvault/pennyvault/internal/domain/common"
	"github.com/pennyvault/pennyvault/internal/domain/ingest/repository"
	"github.com/pennyvault/pennyvault/internal/domain/ingest/rules"
	"github.com/pennyvault/pennyvault/internal/domain/ingest/service"
)

// Statement exports are small; anything bigger than this is not a statement.
const maxImportBodyBytes int64 = 10 << 20

// IngestHandler handles import and category-rule requests.
type IngestHandler struct {
	svc    *service.ImportService
	repo   repository.LedgerRepository
	logger *slog.Logger
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(svc *service.ImportService, repo repository.LedgerRepository, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{svc: svc, repo: repo, logger: logger}
}

type importRequest struct {
	Format  string `json:"format"`
	Content string `json:"content"`
}

type importResponse struct {
	Imported   int `json:"imported"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
	Conflicts  int `json:"conflicts"`
}

// HandleImport serves POST /v1/accounts/{accountID}/imports.
func (h *IngestHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.PathValue("accountID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBodyBytes)
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Format == "" || req.Content == "" {
		h.writeError(w, http.StatusBadRequest, "format and content are required")
		return
	}

	ruleSet, err := h.repo.ListCategoryRules(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "loading category rules", slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result, err := h.svc.ImportBatch(r.Context(), accountID, req.Format, req.Content, ruleSet)
	if err != nil {
		var failed *service.ImportFailedError
		switch {
		case errors.Is(err, service.ErrUnknownFormat):
			h.writeError(w, http.StatusBadRequest, "unknown import format")
		case errors.As(err, &failed):
			h.logger.ErrorContext(r.Context(), "import batch failed",
				slog.Int("rows", failed.Rows), slog.Any("error", failed.Err))
			h.writeError(w, http.StatusBadGateway, "import failed, no rows were committed")
		default:
			h.logger.ErrorContext(r.Context(), "import batch failed", slog.Any("error", err))
			h.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, importResponse{
		Imported:   result.Imported,
		Skipped:    result.Skipped,
		Duplicates: result.Duplicates,
		Conflicts:  result.Conflicts,
	})
}

// HandleListFormats serves GET /v1/formats.
func (h *IngestHandler) HandleListFormats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string][]string{"formats": h.svc.Formats()})
}

type ruleResponse struct {
	ID        uuid.UUID `json:"id"`
	Pattern   string    `json:"pattern"`
	MatchType string    `json:"matchType"`
	Category  string    `json:"category"`
	Priority  int       `json:"priority"`
}

func toRuleResponse(r rules.Rule) ruleResponse {
	return ruleResponse{
		ID:        r.ID,
		Pattern:   r.Pattern,
		MatchType: string(r.MatchType),
		Category:  r.Category,
		Priority:  r.Priority,
	}
}

// HandleListRules serves GET /v1/rules, in evaluation order.
func (h *IngestHandler) HandleListRules(w http.ResponseWriter, r *http.Request) {
	ruleSet, err := h.repo.ListCategoryRules(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing category rules", slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]ruleResponse, 0, len(ruleSet))
	for _, rule := range ruleSet {
		out = append(out, toRuleResponse(rule))
	}
	h.writeJSON(w, http.StatusOK, map[string][]ruleResponse{"rules": out})
}

type createRuleRequest struct {
	Pattern   string `json:"pattern"`
	MatchType string `json:"matchType"`
	Category  string `json:"category"`
	Priority  *int   `json:"priority"`
}

// HandleCreateRule serves POST /v1/rules. Priority defaults by match type
// when omitted.
func (h *IngestHandler) HandleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req createRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	matchType := rules.MatchType(req.MatchType)
	if req.Pattern == "" || req.Category == "" || !matchType.Valid() {
		h.writeError(w, http.StatusBadRequest, "pattern, category and a valid matchType are required")
		return
	}

	priority := matchType.DefaultPriority()
	if req.Priority != nil {
		priority = *req.Priority
	}

	rule := &rules.Rule{
		Pattern:   req.Pattern,
		MatchType: matchType,
		Category:  req.Category,
		Priority:  priority,
	}
	if err := h.repo.CreateCategoryRule(r.Context(), rule); err != nil {
		h.logger.ErrorContext(r.Context(), "creating category rule", slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.writeJSON(w, http.StatusCreated, toRuleResponse(*rule))
}

// HandleDeleteRule serves DELETE /v1/rules/{id}.
func (h *IngestHandler) HandleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid rule id")
		return
	}

	if err := h.repo.DeleteCategoryRule(r.Context(), id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "rule not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "deleting category rule", slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *IngestHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *IngestHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
