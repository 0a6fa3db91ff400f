package handlers

import (
	"mail-route-tracker/internal/api/dto"
	"mail-route-tracker/internal/domain"
	"mail-route-tracker/internal/ports"
	"mail-route-tracker/internal/services"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// StreetHandler exposes street CRUD and delivery bookkeeping.
// Reads go through Source (normally the snapshot hub); writes go to Repo.
type StreetHandler struct {
	Repo   ports.StreetRepository
	Source ports.StreetSource
	Now    func() time.Time
}

func (h *StreetHandler) source() ports.StreetSource {
	if h.Source != nil {
		return h.Source
	}
	return h.Repo
}

func (h *StreetHandler) List(w http.ResponseWriter, r *http.Request) {
	streets, err := h.source().ListStreets(r.Context())
	if err != nil {
		writeServiceError(w, r, "list streets", err)
		return
	}

	if area := strings.TrimSpace(r.URL.Query().Get("area")); area != "" {
		streets = services.StreetsInArea(streets, area)
	}

	writeJSON(w, r, http.StatusOK, dto.ListStreetsResponse{Streets: dto.NewStreetResponses(streets)})
}

func (h *StreetHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.Repo.GetStreet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "get street", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewStreetResponse(s))
}

func (h *StreetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateStreetRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	area := strings.TrimSpace(req.Area)
	if name == "" || area == "" {
		writeError(w, r, http.StatusBadRequest, "name and area are required")
		return
	}

	created, err := h.Repo.CreateStreet(r.Context(), &domain.Street{
		ID:    strings.TrimSpace(req.ID),
		Name:  name,
		Area:  area,
		IsBig: req.IsBig,
	})
	if err != nil {
		writeServiceError(w, r, "create street", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewStreetResponse(created))
}

func (h *StreetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.DeleteStreet(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, "delete street", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkDelivered records a delivery. Body fields are optional: minutes adds a
// duration sample and delivered_at backdates the delivery.
func (h *StreetHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	var req dto.DeliveryRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Minutes != nil && (*req.Minutes < 1 || *req.Minutes > 600) {
		writeError(w, r, http.StatusBadRequest, "minutes must be between 1 and 600")
		return
	}

	now := nowFunc(h.Now)()
	at := now
	if req.DeliveredAt != nil {
		at = *req.DeliveredAt
	}

	updated, err := services.MarkDelivered(r.Context(), h.Repo, chi.URLParam(r, "id"), at, req.Minutes, now)
	if err != nil {
		writeServiceError(w, r, "mark delivered", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewStreetResponse(updated))
}

func (h *StreetHandler) UndoDelivery(w http.ResponseWriter, r *http.Request) {
	updated, err := services.UndoDelivery(r.Context(), h.Repo, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "undo delivery", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewStreetResponse(updated))
}
