package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
)

// apiServer is the HTTP surface of the interpretation engine: single-sample
// interpretation, batch upload, the rolling dashboard and ad-hoc summaries.
type apiServer struct {
	cfg    Config
	store  *Store
	interp *Interpreter
}

func NewRouter(cfg Config, store *Store, interp *Interpreter) *httprouter.Router {
	app := &apiServer{cfg: cfg, store: store, interp: interp}

	router := httprouter.New()
	router.GET("/api/health", app.healthHandler)
	router.POST("/api/interpret", app.interpretHandler)
	router.POST("/api/batch", app.batchHandler)
	router.GET("/api/dashboard", app.dashboardHandler)
	router.GET("/api/summary", app.summaryHandler)
	router.GET("/api/history/:sampleID", app.historyHandler)
	return router
}

type interpretRequest struct {
	SampleID   string   `json:"sample_id"`
	RunID      string   `json:"run_id"`
	OperatorID string   `json:"operator_id"`
	Nil        *float64 `json:"nil"`
	TB1        *float64 `json:"tb1"`
	TB2        *float64 `json:"tb2"`
	Mitogen    *float64 `json:"mitogen"`
}

type interpretResponse struct {
	SampleID    string           `json:"sample_id"`
	RunID       string           `json:"run_id"`
	OperatorID  string           `json:"operator_id"`
	RecordedAt  time.Time        `json:"recorded_at"`
	Result      string           `json:"result"`
	Reason      string           `json:"reason"`
	ReasonTag   string           `json:"reason_tag,omitempty"`
	TB1MinusNil float64          `json:"tb1_minus_nil"`
	TB2MinusNil float64          `json:"tb2_minus_nil"`
	MitMinusNil float64          `json:"mit_minus_nil"`
	NilQuarter  float64          `json:"nil_quarter"`
	Warnings    []string         `json:"warnings,omitempty"`
	DeltaCheck  DeltaCheckResult `json:"delta_check"`
}

func (app *apiServer) healthHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	app.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *apiServer) interpretHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req interpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.SampleID == "" {
		app.writeError(w, http.StatusBadRequest, "sample_id is required")
		return
	}
	for name, v := range map[string]*float64{"nil": req.Nil, "tb1": req.TB1, "tb2": req.TB2, "mitogen": req.Mitogen} {
		if v == nil {
			app.writeError(w, http.StatusBadRequest, (&InvalidNumericError{Field: name, Value: ""}).Error())
			return
		}
	}

	m := PanelMeasurement{
		SampleID:   req.SampleID,
		RunID:      req.RunID,
		OperatorID: req.OperatorID,
		Nil:        *req.Nil,
		TB1:        *req.TB1,
		TB2:        *req.TB2,
		Mitogen:    *req.Mitogen,
	}
	c := Classify(m.Nil, m.TB1, m.TB2, m.Mitogen)

	rec, delta, err := app.interp.Interpret(m, time.Now())
	if err != nil {
		app.writeError(w, http.StatusInternalServerError, "failed to record interpretation: "+err.Error())
		return
	}

	app.writeJSON(w, http.StatusOK, interpretResponse{
		SampleID:    rec.SampleID,
		RunID:       rec.RunID,
		OperatorID:  rec.OperatorID,
		RecordedAt:  rec.RecordedAt,
		Result:      rec.Result,
		Reason:      rec.Reason,
		ReasonTag:   rec.ReasonTag,
		TB1MinusNil: c.TB1MinusNil,
		TB2MinusNil: c.TB2MinusNil,
		MitMinusNil: c.MitMinusNil,
		NilQuarter:  c.NilQuarter,
		Warnings:    MeasurementWarnings(m),
		DeltaCheck:  delta,
	})
}

type batchResponse struct {
	TotalRows int           `json:"total_rows"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Rows      []batchRowOut `json:"rows"`
}

type batchRowOut struct {
	RowNum     int              `json:"row_num"`
	SampleID   string           `json:"sample_id"`
	Result     string           `json:"result"`
	Reason     string           `json:"reason"`
	DeltaCheck DeltaCheckResult `json:"delta_check"`
}

// batchHandler accepts a CSV batch file as the request body. Operator and
// run identifiers come from query parameters.
func (app *apiServer) batchHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	rows, err := readBatchRows(r.Body)
	if err != nil {
		app.writeError(w, http.StatusBadRequest, "invalid CSV body: "+err.Error())
		return
	}

	operatorID := r.URL.Query().Get("operator_id")
	runID := r.URL.Query().Get("run_id")

	outcome, err := IngestBatch(app.interp, rows, operatorID, runID)
	if err != nil {
		var headerErr *HeaderError
		if errors.As(err, &headerErr) {
			app.writeError(w, http.StatusBadRequest, headerErr.Error())
			return
		}
		app.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := batchResponse{
		TotalRows: outcome.TotalRows,
		Processed: outcome.Processed(),
		Skipped:   outcome.Skipped,
		Rows:      make([]batchRowOut, 0, len(outcome.Results)),
	}
	for _, rr := range outcome.Results {
		resp.Rows = append(resp.Rows, batchRowOut{
			RowNum:     rr.RowNum,
			SampleID:   rr.Record.SampleID,
			Result:     rr.Record.Result,
			Reason:     rr.Record.Reason,
			DeltaCheck: rr.Delta,
		})
	}
	app.writeJSON(w, http.StatusOK, resp)
}

func (app *apiServer) dashboardHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	days := app.cfg.DashboardDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			app.writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	summary, err := RefreshDashboard(app.store, days, time.Now())
	if err != nil {
		app.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	app.writeJSON(w, http.StatusOK, summaryPayload(summary))
}

// summaryHandler runs an ad-hoc summary over ?start=YYYY-MM-DD&end=YYYY-MM-DD.
// With ?save=1 the rendered report is also written to the report output dir.
func (app *apiServer) summaryHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	summary, err := SummarizeRange(app.store, r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		var dateErr *DateFormatError
		if errors.As(err, &dateErr) {
			app.writeError(w, http.StatusBadRequest, dateErr.Error())
			return
		}
		app.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	payload := summaryPayload(summary)
	if r.URL.Query().Get("save") == "1" {
		path, err := WriteReportFile(BuildSummaryReport(summary), app.cfg.ReportOutputDir, summary, time.Now())
		if err != nil {
			app.writeError(w, http.StatusInternalServerError, "failed to write report: "+err.Error())
			return
		}
		payload["report_path"] = path
	}
	app.writeJSON(w, http.StatusOK, payload)
}

func (app *apiServer) historyHandler(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			app.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := app.store.HistoryBySampleID(params.ByName("sampleID"), limit)
	if err != nil {
		app.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	app.writeJSON(w, http.StatusOK, map[string]any{
		"sample_id": params.ByName("sampleID"),
		"records":   records,
	})
}

func summaryPayload(s AggregationSummary) map[string]any {
	return map[string]any{
		"from":                s.From.Format(dateOnlyLayout),
		"to":                  s.To.Format(dateOnlyLayout),
		"total":               s.Total,
		"positive":            s.Positive,
		"negative":            s.Negative,
		"indeterminate":       s.Indeterminate,
		"high_nil":            s.HighNil,
		"low_mitogen":         s.LowMitogen,
		"other_indeterminate": s.OtherIndeterminate,
		"positive_rate":       s.PositiveRate,
		"negative_rate":       s.NegativeRate,
		"indeterminate_rate":  s.IndeterminateRate,
		"unique_run_ids":      s.UniqueRunIDs,
		"unique_operators":    s.UniqueOperators,
	}
}

func (app *apiServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response error: %v", err)
	}
}

func (app *apiServer) writeError(w http.ResponseWriter, status int, msg string) {
	app.writeJSON(w, status, map[string]string{"error": msg})
}
