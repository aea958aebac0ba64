package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"media-indexer/internal/database"
	"media-indexer/internal/indexer"
	"media-indexer/internal/jobs"
	"media-indexer/internal/logging"
)

// maxBackfillBody bounds the JSON body accepted by StartPhash.
const maxBackfillBody = 64 * 1024

type conflictResponse struct {
	Error    string      `json:"error"`
	Progress jobs.Status `json:"progress"`
}

type scanStatusResponse struct {
	jobs.Status
	LastRun *database.ScanRun `json:"last_run,omitempty"`
}

type backfillRequest struct {
	Dirs []string `json:"dirs"`
}

// StartScan starts a library scan in the background.
func (h *Handlers) StartScan(w http.ResponseWriter, _ *http.Request) {
	if _, err := h.scanner.Start(h.baseCtx); err != nil {
		h.startFailed(w, "scan", h.scanner, err)
		return
	}
	writeJSONStatus(w, "started", http.StatusAccepted)
}

// StopScan requests cancellation of the running scan.
func (h *Handlers) StopScan(w http.ResponseWriter, _ *http.Request) {
	stopJob(w, "scan", h.scanner)
}

// ScanStatus returns scan progress together with the most recent run record.
func (h *Handlers) ScanStatus(w http.ResponseWriter, r *http.Request) {
	resp := scanStatusResponse{Status: h.scanner.Status()}

	run, err := h.store.LatestRun(r.Context())
	switch {
	case err == nil:
		resp.LastRun = run
	case !errors.Is(err, sql.ErrNoRows):
		logging.Warn("Failed to load latest scan run: %v", err)
	}

	writeJSONCode(w, resp, http.StatusOK)
}

// StartPhash starts a perceptual hash backfill. The optional JSON body
// {"dirs": [...]} restricts it to videos below those directories.
func (h *Handlers) StartPhash(w http.ResponseWriter, r *http.Request) {
	var req backfillRequest
	if r.Body != nil {
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBackfillBody))
		if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeJSONError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	if _, err := h.backfill.Start(h.baseCtx, req.Dirs); err != nil {
		if errors.Is(err, indexer.ErrNoValidDirs) {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.startFailed(w, "phash backfill", h.backfill, err)
		return
	}
	writeJSONStatus(w, "started", http.StatusAccepted)
}

// StopPhash requests cancellation of the running backfill.
func (h *Handlers) StopPhash(w http.ResponseWriter, _ *http.Request) {
	stopJob(w, "phash backfill", h.backfill)
}

// PhashStatus returns backfill progress.
func (h *Handlers) PhashStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSONCode(w, h.backfill.Status(), http.StatusOK)
}

func (h *Handlers) startFailed(w http.ResponseWriter, name string, job JobControl, err error) {
	if errors.Is(err, jobs.ErrAlreadyRunning) {
		writeJSONCode(w, conflictResponse{
			Error:    name + " already running",
			Progress: job.Status(),
		}, http.StatusConflict)
		return
	}
	logging.Error("Failed to start %s: %v", name, err)
	writeJSONError(w, "failed to start "+name, http.StatusInternalServerError)
}

func stopJob(w http.ResponseWriter, name string, job JobControl) {
	if err := job.Stop(); err != nil {
		if errors.Is(err, jobs.ErrNotRunning) {
			writeJSONError(w, "no "+name+" is running", http.StatusConflict)
			return
		}
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	logging.Info("Stop requested for %s", name)
	writeJSONStatus(w, "stopping", http.StatusOK)
}
