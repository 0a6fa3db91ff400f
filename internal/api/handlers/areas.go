package handlers

import (
	"mail-route-tracker/internal/api/dto"
	"mail-route-tracker/internal/ports"
	"mail-route-tracker/internal/services"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"
)

const (
	defaultForecastWeeks = 1
	maxForecastWeeks     = 8
)

// AreaHandler serves the per-area engine views: worklist, tier groups, forecast and
// insights, plus starting a new delivery cycle.
type AreaHandler struct {
	Source     ports.StreetSource
	Repo       ports.StreetRepository
	WalkOrders ports.WalkOrderSource
	Collation  language.Tag
	Now        func() time.Time
}

func areaParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "area"))
}

func (h *AreaHandler) Worklist(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceTime(r, nowFunc(h.Now)())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	optimize := false
	if raw := r.URL.Query().Get("optimize"); raw != "" {
		optimize, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "optimize must be a boolean")
			return
		}
	}

	req := services.WorklistRequest{
		Area:      areaParam(r),
		Date:      ref,
		Optimize:  optimize,
		Collation: h.Collation,
	}
	if optimize && h.WalkOrders != nil {
		req.WalkOrder, err = h.WalkOrders.WalkOrder(r.Context())
		if err != nil {
			writeServiceError(w, r, "load walk order", err)
			return
		}
	}

	wl, err := services.BuildWorklist(r.Context(), req, h.Source)
	if err != nil {
		writeServiceError(w, r, "build worklist", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewWorklistResponse(wl))
}

func (h *AreaHandler) Groups(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceTime(r, nowFunc(h.Now)())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	area := areaParam(r)
	groups, err := services.GroupArea(r.Context(), h.Source, area, ref, h.Collation)
	if err != nil {
		writeServiceError(w, r, "group area", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewGroupsResponse(area, ref, groups))
}

func (h *AreaHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceTime(r, nowFunc(h.Now)())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	weeks := defaultForecastWeeks
	if raw := r.URL.Query().Get("weeks"); raw != "" {
		weeks, err = strconv.Atoi(raw)
		if err != nil || weeks < 1 || weeks > maxForecastWeeks {
			writeError(w, r, http.StatusBadRequest, "weeks must be between 1 and 8")
			return
		}
	}

	area := areaParam(r)
	days, err := services.ForecastArea(r.Context(), h.Source, area, weeks, ref)
	if err != nil {
		writeServiceError(w, r, "forecast area", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewForecastResponse(area, weeks, days))
}

// Insights analyzes delivery durations for one area, or all areas without ?area=.
func (h *AreaHandler) Insights(w http.ResponseWriter, r *http.Request) {
	area := strings.TrimSpace(r.URL.Query().Get("area"))

	analysis, err := services.AnalyzeArea(r.Context(), h.Source, area)
	if err != nil {
		writeServiceError(w, r, "analyze patterns", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewInsightsResponse(area, analysis))
}

func (h *AreaHandler) StartCycle(w http.ResponseWriter, r *http.Request) {
	area := areaParam(r)
	now := nowFunc(h.Now)()

	n, err := services.StartCycle(r.Context(), h.Repo, area, now)
	if err != nil {
		writeServiceError(w, r, "start cycle", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.CycleResponse{Area: area, Started: now, Streets: n})
}
