package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"dancelog/internal/core"
	"dancelog/internal/services"
)

// recordPayload is the request and response shape of a record over the API.
// It mirrors the persisted layout: amount as a bare JSON number, the custom
// institution omitted unless set.
type recordPayload struct {
	ID                string      `json:"id,omitempty"`
	Date              string      `json:"date"`
	Institution       string      `json:"institution"`
	CustomInstitution string      `json:"customInstitution,omitempty"`
	Amount            json.Number `json:"amount"`
	Timestamp         int64       `json:"timestamp,omitempty"`
}

type institutionAmountPayload struct {
	Label  string      `json:"label"`
	Amount json.Number `json:"amount"`
}

type dashboardPayload struct {
	MonthKey      string                     `json:"monthKey"`
	Total         json.Number                `json:"total"`
	Records       []recordPayload            `json:"records"`
	ByInstitution []institutionAmountPayload `json:"byInstitution"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func toRecordPayload(r core.Record) recordPayload {
	p := recordPayload{
		ID:          r.ID,
		Date:        r.Date,
		Institution: string(r.Institution.Name()),
		Amount:      json.Number(r.Amount.String()),
		Timestamp:   r.Timestamp,
	}
	if custom, ok := r.Institution.CustomName(); ok {
		p.CustomInstitution = custom
	}
	return p
}

func toRecordPayloads(records []core.Record) []recordPayload {
	out := make([]recordPayload, len(records))
	for i, r := range records {
		out[i] = toRecordPayload(r)
	}
	return out
}

// parseRecordFields decodes and validates a record body. Validation happens
// here so invalid submissions are rejected before the store is touched.
func parseRecordFields(r *http.Request) (core.RecordFields, int, error) {
	var body recordPayload
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		return core.RecordFields{}, http.StatusBadRequest, errors.New("malformed request body")
	}

	amount, err := core.ParseAmount(body.Amount.String())
	if err != nil {
		return core.RecordFields{}, http.StatusUnprocessableEntity, err
	}

	fields := core.RecordFields{
		Date:        strings.TrimSpace(body.Date),
		Institution: core.InstitutionName(strings.TrimSpace(body.Institution)),
		CustomName:  strings.TrimSpace(body.CustomInstitution),
		Amount:      amount,
	}
	if err := fields.Validate(); err != nil {
		return core.RecordFields{}, http.StatusUnprocessableEntity, err
	}
	return fields, http.StatusOK, nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	monthKey := strings.TrimSpace(r.URL.Query().Get("month"))
	if monthKey == "" {
		monthKey = core.CurrentMonthKey()
	}
	if err := core.ValidateMonthKey(monthKey); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err)
		return
	}

	summary := core.BuildMonthSummary(s.store.Records(), monthKey)

	resp := dashboardPayload{
		MonthKey:      summary.MonthKey,
		Total:         json.Number(summary.Total.String()),
		Records:       toRecordPayloads(summary.Records),
		ByInstitution: make([]institutionAmountPayload, 0, len(summary.ByInstitution)),
	}
	for _, ia := range summary.ByInstitution {
		resp.ByInstitution = append(resp.ByInstitution, institutionAmountPayload{
			Label:  ia.Label,
			Amount: json.Number(ia.Amount.String()),
		})
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, toRecordPayloads(s.store.Records()))
}

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	fields, status, err := parseRecordFields(r)
	if err != nil {
		writeError(w, r, status, err)
		return
	}

	rec, err := s.store.Add(r.Context(), fields)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toRecordPayload(rec))
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	fields, status, err := parseRecordFields(r)
	if err != nil {
		writeError(w, r, status, err)
		return
	}

	rec, err := s.store.Update(r.Context(), id, fields)
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			writeError(w, r, http.StatusNotFound, services.ErrRecordNotFound)
			return
		}
		writeError(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRecordPayload(rec))
}

func (s *Server) handleRemoveRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted := s.store.Remove(r.Context(), id)
	writeJSON(w, r, http.StatusOK, map[string]bool{"deleted": deleted})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "path", r.URL.Path, "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	slog.WarnContext(r.Context(), "Request rejected",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err)
	writeJSON(w, r, status, errorPayload{Error: err.Error()})
}
