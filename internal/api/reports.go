package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/db"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/geo"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/report"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/security"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/units"
)

// ArchiveSessionID labels reports built over the whole archive instead of a
// single capture session.
const ArchiveSessionID = "archive"

// maxReportSamples caps a whole-archive report build.
const maxReportSamples = 10000

type generateReportRequest struct {
	SessionID string `json:"session_id"`
	Units     string `json:"units"`
	Timezone  string `json:"timezone"`
	SkipRoute bool   `json:"skip_route"`
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = n
	}

	var (
		records []db.SessionReportRecord
		err     error
	)
	if sessionID := r.URL.Query().Get("session"); sessionID != "" {
		records, err = s.db.GetRecentReportsForSession(sessionID, limit)
	} else {
		records, err = s.db.GetRecentReports(limit)
	}
	if err != nil {
		log.Printf("Error listing reports: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to list reports")
		return
	}
	if records == nil {
		records = []db.SessionReportRecord{}
	}

	json.NewEncoder(w).Encode(records)
}

func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req generateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	unitLabel := s.cfg.GetUnits()
	if req.Units != "" {
		if !units.IsValid(req.Units) {
			s.writeJSONError(w, http.StatusBadRequest,
				"Invalid units, valid units are: "+units.GetValidUnitsString())
			return
		}
		unitLabel = req.Units
	}

	tzName := s.cfg.GetTimezone()
	if req.Timezone != "" {
		tzName = req.Timezone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid timezone: "+tzName)
		return
	}

	sessionID := ArchiveSessionID
	operator := ""
	var records []db.SampleRecord
	if req.SessionID != "" {
		session, err := s.db.GetCaptureSession(req.SessionID)
		if err != nil {
			s.writeJSONError(w, http.StatusNotFound, "Capture session not found")
			return
		}
		sessionID = session.ID
		operator = session.Operator
		records, err = s.db.SamplesForSession(session.ID)
		if err != nil {
			log.Printf("Error loading session samples: %v", err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to load samples")
			return
		}
	} else {
		records, err = s.db.ListSamples(maxReportSamples)
		if err != nil {
			log.Printf("Error loading archive samples: %v", err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to load samples")
			return
		}
	}

	samples := recordsToSamples(records)

	rep, err := report.Build(samples, report.Options{
		SessionID:   sessionID,
		Operator:    operator,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		var buildErr *report.BuildError
		if !errors.As(err, &buildErr) {
			log.Printf("Error building report: %v", err)
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to build report")
			return
		}
		// Partial report over the valid samples.
		log.Printf("Report for %s: %v", sessionID, buildErr)
		rep = buildErr.Report
	}

	record, err := s.writeReportFiles(rep, unitLabel, loc, tzName, req.SkipRoute)
	if err != nil {
		log.Printf("Error writing report files: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write report")
		return
	}

	if err := s.db.CreateSessionReport(record); err != nil {
		log.Printf("Error recording report: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to record report")
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

// writeReportFiles renders the PDF (and route PNG unless skipped) into the
// configured output directory and returns the unrecorded report row.
func (s *Server) writeReportFiles(rep *report.SessionReport, unitLabel string, loc *time.Location, tzName string, skipRoute bool) (*db.SessionReportRecord, error) {
	outDir := s.cfg.GetReportOutputDir()
	if err := s.fs.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	start, end := rep.GeneratedAt, rep.GeneratedAt
	if len(rep.Rows) > 0 {
		start = rep.Rows[0].Time
		end = rep.Rows[len(rep.Rows)-1].Time
	}
	filename := report.Filename(rep.SessionID, start, end)
	filePath := filepath.Join(outDir, filename)
	if err := security.ValidatePathWithinDirectory(filePath, outDir); err != nil {
		return nil, err
	}

	pdfBytes, err := report.Document(rep, report.DocumentOptions{
		RowsPerPage: s.cfg.GetReportRowsPerPage(),
		Units:       unitLabel,
		Timezone:    loc,
		SkipRoute:   skipRoute,
	})
	if err != nil {
		return nil, err
	}
	if err := s.fs.WriteFile(filePath, pdfBytes, 0o644); err != nil {
		return nil, err
	}

	record := &db.SessionReportRecord{
		SessionID: rep.SessionID,
		Filepath:  filePath,
		Filename:  filename,
		Timezone:  tzName,
		Units:     unitLabel,
	}

	if !skipRoute && len(rep.Segments) > 0 {
		plotName := report.PlotFilename(filename)
		plotPath := filepath.Join(outDir, plotName)
		if err := security.ValidatePathWithinDirectory(plotPath, outDir); err != nil {
			return nil, err
		}
		if err := report.RoutePlot(rep, plotPath); err != nil {
			// The PDF still stands on its own.
			log.Printf("Error plotting route for %s: %v", rep.SessionID, err)
		} else {
			record.PlotFilepath = &plotPath
			record.PlotFilename = &plotName
		}
	}

	return record, nil
}

func (s *Server) downloadReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	record, err := s.db.GetSessionReport(id)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusNotFound, "Report not found")
		return
	}

	filePath, filename := record.Filepath, record.Filename
	contentType := "application/pdf"
	if r.URL.Query().Get("file") == "plot" {
		if record.PlotFilepath == nil {
			w.Header().Set("Content-Type", "application/json")
			s.writeJSONError(w, http.StatusNotFound, "Report has no route plot")
			return
		}
		filePath, filename = *record.PlotFilepath, *record.PlotFilename
		contentType = "image/png"
	}

	if err := security.ValidatePathWithinDirectory(filePath, s.cfg.GetReportOutputDir()); err != nil {
		log.Printf("Rejecting report download %d: %v", id, err)
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusForbidden, "Report path is outside the output directory")
		return
	}

	data, err := s.fs.ReadFile(filePath)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		s.writeJSONError(w, http.StatusNotFound, "Report file missing on disk")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(data)
}

// recordsToSamples projects archive rows into classifier samples, oldest
// first.
func recordsToSamples(records []db.SampleRecord) []road.Sample {
	samples := make([]road.Sample, 0, len(records))
	for _, rec := range records {
		quality, err := road.ParseQuality(rec.Rating)
		if err != nil {
			quality = road.QualityUnknown
		}
		samples = append(samples, road.Sample{
			ID:         rec.ID,
			Coordinate: geo.Coordinate{Lat: rec.Latitude, Lng: rec.Longitude},
			Quality:    quality,
			Width:      rec.ImageWidth,
			Height:     rec.ImageHeight,
			CapturedAt: rec.CapturedAt,
			Stored:     true,
		})
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].CapturedAt.Before(samples[j].CapturedAt)
	})
	return samples
}
