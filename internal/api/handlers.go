package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/btleweather/btleweather/pkg/emr"
)

// HandleHealth reports liveness and whether a measurement has
// succeeded yet.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_, measuredAt, ok := s.source.Latest()

	resp := map[string]interface{}{
		"status":       "ok",
		"has_snapshot": ok,
	}
	if ok {
		resp["measured_at"] = measuredAt
	}

	s.respondJSON(w, http.StatusOK, resp)
}

// HandleSnapshot returns the latest decoded snapshot.
func (s *Server) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, measuredAt, ok := s.source.Latest()
	if !ok {
		s.respondError(w, http.StatusNotFound, "no measurement has succeeded yet")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"measuredAt": measuredAt,
		"station":    s.config.Station.MAC,
		"snapshot":   snapshot,
	})
}

// HandleSensor returns the latest reading of one sensor unit.
func (s *Server) HandleSensor(w http.ResponseWriter, r *http.Request) {
	unit, err := strconv.Atoi(chi.URLParam(r, "unit"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid sensor unit")
		return
	}

	snapshot, measuredAt, ok := s.source.Latest()
	if !ok {
		s.respondError(w, http.StatusNotFound, "no measurement has succeeded yet")
		return
	}

	reading, ok := snapshot.Sensors[unit]
	if !ok {
		s.respondError(w, http.StatusNotFound, "sensor unit not present")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"measuredAt": measuredAt,
		"unit":       unit,
		"reading":    reading,
	})
}

// HandleRawData returns the reassembled-but-undecoded buffers from the
// latest session as a plain text hex dump.
func (s *Server) HandleRawData(w http.ResponseWriter, r *http.Request) {
	raw := s.source.RawData()
	if len(raw) == 0 {
		s.respondError(w, http.StatusNotFound, "no raw data collected yet")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(emr.Dump(raw) + "\n")); err != nil {
		log.Error().Err(err).Msg("write raw dump response")
	}
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encode JSON response")
	}
}

// respondError sends a JSON error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"error": message,
		"time":  time.Now(),
	})
}
