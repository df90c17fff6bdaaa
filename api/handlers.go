package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cnis.health/nse/assistant"
	"cnis.health/nse/diet"
	"cnis.health/nse/records"
	"cnis.health/nse/region"
	"cnis.health/nse/screening"
	"github.com/go-chi/chi/v5"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: now.UTC(),
		Uptime:    now.Sub(s.started).Seconds(),
	})
}

// createScreening is idempotent per requestId: a repeated submission returns
// the stored record with 200 instead of 201.
func (s *Server) createScreening(w http.ResponseWriter, r *http.Request) {
	var sub records.Submission
	if !decodeBody(w, r, &sub) {
		return
	}
	log := requestLog(r)
	ctx := r.Context()

	if existing, err := s.store.FindByFingerprint(ctx, sub.Fingerprint()); err == nil {
		log.Info().Str("record_id", existing.ID).Msg("Returning stored record for repeated submission")
		writeJSON(w, http.StatusOK, existing)
		return
	} else if !errors.Is(err, records.ErrNotFound) {
		s.internalError(w, r, err)
		return
	}

	record := s.assessor.Assess(sub)
	err := s.store.Put(ctx, record)
	if errors.Is(err, records.ErrDuplicate) {
		existing, findErr := s.store.FindByFingerprint(ctx, record.Fingerprint)
		if findErr != nil {
			s.internalError(w, r, findErr)
			return
		}
		writeJSON(w, http.StatusOK, existing)
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	log.Info().
		Str("record_id", record.ID).
		Str("status", string(record.Result.OverallStatus)).
		Str("zone", string(record.Result.Zone)).
		Msg("Stored screening")

	if s.archiver != nil {
		if body, err := json.Marshal(record); err == nil {
			if err := s.archiver.Archive(ctx, s.archiver.Key(record.ID, record.CreatedAt), body); err != nil {
				log.Err(err).Str("record_id", record.ID).Msg("Failed to archive screening record")
			}
		}
	}
	writeJSON(w, http.StatusCreated, record)
}

type previewResponse struct {
	Location region.Location     `json:"location"`
	Season   diet.Season         `json:"season"`
	Result   screening.Result    `json:"result"`
	Diet     diet.Recommendation `json:"diet"`
}

func (s *Server) previewScreening(w http.ResponseWriter, r *http.Request) {
	var sub records.Submission
	if !decodeBody(w, r, &sub) {
		return
	}
	record := s.assessor.Assess(sub)
	writeJSON(w, http.StatusOK, previewResponse{
		Location: record.Location,
		Season:   record.Season,
		Result:   record.Result,
		Diet:     record.Diet,
	})
}

func (s *Server) getScreening(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record, err := s.store.Get(r.Context(), id)
	if errors.Is(err, records.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Screening not found", id)
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// zoneCounts follows the report cards: SAM, MAM and normal are the red,
// orange and green zones.
type zoneCounts struct {
	Total  int `json:"total"`
	SAM    int `json:"sam"`
	MAM    int `json:"mam"`
	Normal int `json:"normal"`
}

type listResponse struct {
	Records []*records.Record `json:"records"`
	Count   int               `json:"count"`
	Counts  zoneCounts        `json:"counts"`
}

func parseZone(raw string) (screening.Zone, bool) {
	switch zone := screening.Zone(strings.ToLower(strings.TrimSpace(raw))); zone {
	case "", "all":
		return "", true
	case screening.ZoneRed, screening.ZoneOrange, screening.ZoneGreen:
		return zone, true
	}
	return "", false
}

// listScreenings returns the newest records, optionally of one zone. Counts
// cover every record of the user regardless of zone and limit.
func (s *Server) listScreenings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultListLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxListLimit {
			writeError(w, http.StatusBadRequest, "Invalid limit", "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}
	zone, ok := parseZone(q.Get("zone"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid zone", "zone must be red, orange, green or all")
		return
	}
	all, err := s.store.List(r.Context(), q.Get("userId"), 0)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	resp := listResponse{Records: []*records.Record{}}
	for _, rec := range all {
		resp.Counts.Total++
		switch rec.Result.Zone {
		case screening.ZoneRed:
			resp.Counts.SAM++
		case screening.ZoneOrange:
			resp.Counts.MAM++
		case screening.ZoneGreen:
			resp.Counts.Normal++
		}
		if (zone == "" || rec.Result.Zone == zone) && len(resp.Records) < limit {
			resp.Records = append(resp.Records, rec)
		}
	}
	resp.Count = len(resp.Records)
	writeJSON(w, http.StatusOK, resp)
}

type dietRequest struct {
	Region        string           `json:"region"`
	Season        string           `json:"season"`
	OverallStatus screening.Status `json:"overallStatus"`
}

func (s *Server) recommendDiet(w http.ResponseWriter, r *http.Request) {
	var req dietRequest
	if !decodeBody(w, r, &req) {
		return
	}
	season := diet.Season(req.Season)
	if req.Season == "" {
		season = diet.DetectSeason(s.now().Month())
	} else if parsed, ok := diet.ParseSeason(req.Season); ok {
		season = parsed
	}
	writeJSON(w, http.StatusOK, s.resolver.Recommend(req.Region, season, req.OverallStatus))
}

func (s *Server) resolveRegion(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rawLat, rawLng := q.Get("lat"), q.Get("lng")
	if rawLat == "" && rawLng == "" {
		writeJSON(w, http.StatusOK, region.Fallback())
		return
	}
	lat, latErr := strconv.ParseFloat(rawLat, 64)
	lng, lngErr := strconv.ParseFloat(rawLng, 64)
	if latErr != nil || lngErr != nil {
		writeError(w, http.StatusBadRequest, "Invalid coordinates", "lat and lng must both be numbers")
		return
	}
	writeJSON(w, http.StatusOK, region.Locate(lat, lng))
}

type chatRequest struct {
	assistant.Question
	RecordID string           `json:"recordId,omitempty"`
	Location *region.Location `json:"location,omitempty"`
}

// chat grounds every question in the asker's regional context. The location
// comes from the referenced screening, else from the request, else the
// default region.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid message", err.Error())
		return
	}
	if s.assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "Service unavailable", "AI service configuration missing")
		return
	}

	var record *records.Record
	loc := region.Normalize(req.Location)
	if req.RecordID != "" {
		var err error
		record, err = s.store.Get(r.Context(), req.RecordID)
		if errors.Is(err, records.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Screening not found", req.RecordID)
			return
		}
		if err != nil {
			s.internalError(w, r, err)
			return
		}
		loc = record.Location
	}

	question := req.Question
	rc, err := s.regional.Build(r.Context(), loc)
	if err != nil {
		requestLog(r).Warn().Err(err).Msg("Answering without regional context")
	}
	switch {
	case question.SystemPrompt != "" && err == nil:
		question.SystemPrompt += assistant.RegionalContext(rc)
	case question.SystemPrompt != "":
	case record != nil && err == nil:
		question.SystemPrompt = assistant.ScreeningPrompt(record, &rc)
	case record != nil:
		question.SystemPrompt = assistant.ScreeningPrompt(record, nil)
	case err == nil:
		question.SystemPrompt = assistant.RegionalPrompt(rc)
	}

	answer, err := s.assistant.Ask(r.Context(), question)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, answer)
	case errors.Is(err, assistant.ErrEmptyMessage), errors.Is(err, assistant.ErrMessageTooLong):
		writeError(w, http.StatusBadRequest, "Invalid message", err.Error())
	case errors.Is(err, assistant.ErrNoProvider):
		writeError(w, http.StatusServiceUnavailable, "Service unavailable", "AI service configuration missing")
	case errors.Is(err, assistant.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "AI service unavailable",
			"Both OpenAI and Gemini services failed. Please try again later.")
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	if isClientError(err) {
		requestLog(r).Info().Err(err).Msg("Client went away")
		return
	}
	requestLog(r).Err(err).Int("status", http.StatusInternalServerError).Msg("Request failed")
	writeError(w, http.StatusInternalServerError, "Internal server error", "Failed to process request")
}
