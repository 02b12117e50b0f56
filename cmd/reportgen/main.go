// Command reportgen rebuilds a PDF session report (and route PNG) from the
// sample archive without running the service.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/db"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/fsutil"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/geo"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/report"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/security"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/units"
)

var (
	dbFile    = flag.String("db", "roadeye.db", "Path to the sample archive database")
	sessionID = flag.String("session", "", "Capture session to report on (empty: whole archive)")
	outDir    = flag.String("out", "reports", "Output directory for the PDF and PNG")
	unitLabel = flag.String("units", units.Kilometers, "Distance units (m, km or mi)")
	tzName    = flag.String("tz", "UTC", "Timezone for rendered timestamps")
	rows      = flag.Int("rows", report.DefaultRowsPerPage, "Table rows per page")
	skipRoute = flag.Bool("skip-route", false, "Omit the route page and PNG")
	record    = flag.Bool("record", false, "Record the generated report in session_reports")
	maxRows   = flag.Int("max-samples", 10000, "Maximum archive samples for a whole-archive report")
)

func main() {
	flag.Parse()

	if !units.IsValid(*unitLabel) {
		log.Fatalf("Invalid units %q, valid units are: %s", *unitLabel, units.GetValidUnitsString())
	}
	loc, err := time.LoadLocation(*tzName)
	if err != nil {
		log.Fatalf("Invalid timezone %q: %v", *tzName, err)
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	label := "archive"
	operator := ""
	var records []db.SampleRecord
	if *sessionID != "" {
		session, err := database.GetCaptureSession(*sessionID)
		if err != nil {
			log.Fatalf("Failed to load session %s: %v", *sessionID, err)
		}
		label = session.ID
		operator = session.Operator
		records, err = database.SamplesForSession(session.ID)
		if err != nil {
			log.Fatalf("Failed to load session samples: %v", err)
		}
	} else {
		records, err = database.ListSamples(*maxRows)
		if err != nil {
			log.Fatalf("Failed to load archive samples: %v", err)
		}
	}

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
			CapturedAt: rec.CapturedAt,
			Stored:     true,
		})
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].CapturedAt.Before(samples[j].CapturedAt)
	})

	rep, err := report.Build(samples, report.Options{
		SessionID:   label,
		Operator:    operator,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		// A partial report over the valid samples still renders.
		log.Printf("Warning: %v", err)
	}
	if rep == nil {
		log.Fatal("No report could be built")
	}

	fs := fsutil.OSFileSystem{}
	if err := fs.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	start, end := rep.GeneratedAt, rep.GeneratedAt
	if len(rep.Rows) > 0 {
		start = rep.Rows[0].Time
		end = rep.Rows[len(rep.Rows)-1].Time
	}
	filename := report.Filename(label, start, end)
	pdfPath := filepath.Join(*outDir, filename)
	if err := security.ValidatePathWithinDirectory(pdfPath, *outDir); err != nil {
		log.Fatalf("Rejecting output path: %v", err)
	}

	pdfBytes, err := report.Document(rep, report.DocumentOptions{
		RowsPerPage: *rows,
		Units:       *unitLabel,
		Timezone:    loc,
		SkipRoute:   *skipRoute,
	})
	if err != nil {
		log.Fatalf("Failed to render PDF: %v", err)
	}
	if err := fs.WriteFile(pdfPath, pdfBytes, 0o644); err != nil {
		log.Fatalf("Failed to write PDF: %v", err)
	}
	fmt.Printf("Wrote %s (%d samples, %d bytes)\n", pdfPath, rep.TotalSamples, len(pdfBytes))

	reportRec := &db.SessionReportRecord{
		SessionID: label,
		Filepath:  pdfPath,
		Filename:  filename,
		Timezone:  *tzName,
		Units:     *unitLabel,
	}

	if !*skipRoute && len(rep.Segments) > 0 {
		plotName := report.PlotFilename(filename)
		plotPath := filepath.Join(*outDir, plotName)
		if err := report.RoutePlot(rep, plotPath); err != nil {
			log.Printf("Failed to plot route: %v", err)
		} else {
			fmt.Printf("Wrote %s\n", plotPath)
			reportRec.PlotFilepath = &plotPath
			reportRec.PlotFilename = &plotName
		}
	}

	if *record {
		if err := database.CreateSessionReport(reportRec); err != nil {
			log.Fatalf("Failed to record report: %v", err)
		}
		fmt.Printf("Recorded report %d for %s\n", reportRec.ID, label)
	}
}
