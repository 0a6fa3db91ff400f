package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mail-route-tracker/internal/platform/logger"
	"mail-route-tracker/internal/ports"
	"mail-route-tracker/internal/services"
	"net/http"
	"strings"
	"time"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeServiceError maps known service errors to client statuses and hides the rest.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ports.ErrStreetNotFound):
		writeError(w, r, http.StatusNotFound, "street not found")
	case errors.Is(err, ports.ErrStreetExists):
		writeError(w, r, http.StatusConflict, "street already exists")
	case errors.Is(err, services.ErrInvalidArea):
		writeError(w, r, http.StatusBadRequest, services.ErrInvalidArea.Error())
	case errors.Is(err, services.ErrInvalidStreetID):
		writeError(w, r, http.StatusBadRequest, services.ErrInvalidStreetID.Error())
	case errors.Is(err, services.ErrDeliveryInFuture):
		writeError(w, r, http.StatusBadRequest, "delivered_at must not be in the future")
	default:
		logger.Error(op+" failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads exactly one JSON object with no unknown fields. An empty body
// leaves v untouched when allowEmpty is set.
func decodeJSON(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

// referenceTime reads the optional ?date=YYYY-MM-DD parameter. A given date keeps the
// current time of day so "today" and the explicit current date agree.
func referenceTime(r *http.Request, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return now, nil
	}

	d, err := time.ParseInLocation(time.DateOnly, raw, now.Location())
	if err != nil {
		return time.Time{}, errors.New("date must be formatted as YYYY-MM-DD")
	}
	return time.Date(d.Year(), d.Month(), d.Day(),
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location()), nil
}

// nowFunc returns fn, or time.Now when fn is nil.
func nowFunc(fn func() time.Time) func() time.Time {
	if fn == nil {
		return time.Now
	}
	return fn
}
