// Package handler содержит HTTP-обработчики API трекера пожертвований.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/impact-tracker/internal/codec"
	"github.com/mmeshcher/impact-tracker/internal/export"
	"github.com/mmeshcher/impact-tracker/internal/model"
	"github.com/mmeshcher/impact-tracker/internal/service"
	"github.com/mmeshcher/impact-tracker/internal/validation"
)

// Tracker определяет контракт состояния трекера, используемый HTTP-обработчиками.
type Tracker interface {
	Add(ctx context.Context, in service.Input) (model.Donation, error)
	Remove(ctx context.Context, id string) error
	Replace(ctx context.Context, donations []model.Donation) error
	Donations() []model.Donation
	Totals() model.ImpactTotals
	Aggregate(donations []model.Donation) model.ImpactTotals
	Impact(d model.Donation) model.Impact
	Preview(amount float64) map[model.Category]model.Impact
	ShareURL() string
	ExportCSV(w io.Writer) error
}

// Handler реализует HTTP-обработчики API трекера.
type Handler struct {
	tracker Tracker
	logger  *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(t Tracker, logger *zap.Logger) *Handler {
	return &Handler{
		tracker: t,
		logger:  logger,
	}
}

type donationResponse struct {
	ID        string       `json:"id"`
	CreatedAt string       `json:"createdAt"`
	Amount    float64      `json:"amount"`
	Category  string       `json:"category"`
	Note      string       `json:"note,omitempty"`
	Impact    model.Impact `json:"impact"`
}

type listResponse struct {
	Donations []donationResponse `json:"donations"`
	Totals    model.ImpactTotals `json:"totals"`
	ShareURL  string             `json:"shareUrl"`
}

func (h *Handler) toResponse(d model.Donation) donationResponse {
	return donationResponse{
		ID:        d.ID,
		CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339Nano),
		Amount:    d.Amount,
		Category:  string(d.Category),
		Note:      d.Note,
		Impact:    h.tracker.Impact(d),
	}
}

func (h *Handler) toResponses(donations []model.Donation) []donationResponse {
	resp := make([]donationResponse, 0, len(donations))
	for _, d := range donations {
		resp = append(resp, h.toResponse(d))
	}
	return resp
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

// ListDonations возвращает список пожертвований, итоги и ссылку для шаринга.
func (h *Handler) ListDonations(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, listResponse{
		Donations: h.toResponses(h.tracker.Donations()),
		Totals:    h.tracker.Totals(),
		ShareURL:  h.tracker.ShareURL(),
	})
}

type addRequest struct {
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Note     string  `json:"note"`
}

// AddDonation регистрирует новое пожертвование.
func (h *Handler) AddDonation(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	d, err := h.tracker.Add(r.Context(), service.Input{
		Amount:   req.Amount,
		Category: req.Category,
		Note:     req.Note,
	})
	if err != nil {
		if errors.Is(err, validation.ErrInvalidAmount) || errors.Is(err, validation.ErrInvalidCategory) {
			http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("add donation error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, h.toResponse(d))
}

// RemoveDonation удаляет пожертвование по идентификатору.
func (h *Handler) RemoveDonation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.tracker.Remove(r.Context(), id); err != nil {
		h.logger.Error("remove donation error", zap.Error(err), zap.String("id", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type previewResponse struct {
	Amount float64                         `json:"amount"`
	Impact map[model.Category]model.Impact `json:"impact"`
}

// Preview показывает эффект суммы во всех категориях.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	amount, err := validation.ParseAmount(r.URL.Query().Get("amount"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	h.writeJSON(w, http.StatusOK, previewResponse{
		Amount: amount,
		Impact: h.tracker.Preview(amount),
	})
}

// ExportCSV отдаёт выгрузку пожертвований в CSV.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)

	if err := h.tracker.ExportCSV(w); err != nil {
		h.logger.Error("export csv error", zap.Error(err))
	}
}

type shareResponse struct {
	URL string `json:"url"`
}

// Share возвращает ссылку с закодированным состоянием.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, shareResponse{URL: h.tracker.ShareURL()})
}

// ViewShared декодирует состояние из ссылки, не изменяя текущий список.
// Невалидная ссылка даёт пустой список.
func (h *Handler) ViewShared(w http.ResponseWriter, r *http.Request) {
	state := codec.FromQuery(r.URL.Query())

	h.writeJSON(w, http.StatusOK, listResponse{
		Donations: h.toResponses(state.Donations),
		Totals:    h.tracker.Aggregate(state.Donations),
	})
}

// ImportShared заменяет текущий список состоянием из ссылки.
// Если состояния в ссылке нет, текущий список не меняется.
func (h *Handler) ImportShared(w http.ResponseWriter, r *http.Request) {
	state := codec.FromQuery(r.URL.Query())
	if !state.Present {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.tracker.Replace(r.Context(), state.Donations); err != nil {
		h.logger.Error("import shared state error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.ListDonations(w, r)
}
