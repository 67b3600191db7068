package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"pms_sync/internal/app"
	"pms_sync/internal/domain"
)

const maxWebhookBody = 1 << 20

type Handlers struct {
	PMS   *app.Registry
	Store domain.RecordStore
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type breakfastResponse struct {
	StayID    int64 `json:"stay_id"`
	Breakfast *bool `json:"breakfast"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/webhook/{pms}", h.webhook)
	s.mux.Post("/webhook/{pms}/", h.webhook)
	s.mux.Get("/v1/stays/{id}/breakfast", h.stayBreakfast)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func (h *Handlers) webhook(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "pms")
	pms, ok := h.PMS.Resolve(name)
	if !ok {
		writeProblem(w, http.StatusNotFound, "Unknown PMS", domain.ErrAdapterNotFound.Error()+": "+name)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "could not read body")
		return
	}

	payload, err := pms.NormalizePayload(body)
	if err != nil {
		log.Warn().Err(err).Str("pms", name).Msg("webhook payload rejected")
		writeProblem(w, http.StatusBadRequest, "Malformed Payload", err.Error())
		return
	}

	if err := pms.HandleWebhook(r.Context(), payload); err != nil {
		writeProblem(w, http.StatusBadRequest, "Reconciliation Failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Thanks for the update."))
}

func (h *Handlers) stayBreakfast(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	stay, err := h.Store.GetStay(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "stay not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "stay lookup failed")
		return
	}
	hotel, err := h.Store.GetHotel(r.Context(), stay.HotelID)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "hotel lookup failed")
		return
	}
	pms, ok := h.PMS.Resolve(hotel.PMS)
	if !ok {
		writeProblem(w, http.StatusNotFound, "Unknown PMS", domain.ErrAdapterNotFound.Error()+": "+hotel.PMS)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(breakfastResponse{StayID: id, Breakfast: pms.StayHasBreakfast(r.Context(), stay)}); err != nil {
		log.Error().Err(err).Msg("failed to write breakfast body")
	}
}
