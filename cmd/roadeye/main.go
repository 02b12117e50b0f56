package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/api"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/capture"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/classify"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/config"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/db"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/framesource"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/geo"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/httputil"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/location"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/road"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/store"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/timeutil"
	"github.com/adityaaggupta2017/road-eye-geo-tag/internal/version"
)

var (
	devMode     = flag.Bool("dev", false, "Run in dev mode (simulated GPS, synthetic frames, simulated classifier)")
	listen      = flag.String("listen", ":4100", "Listen address")
	dbFile      = flag.String("db", "roadeye.db", "Path to the sample archive database")
	configPath  = flag.String("config", "", "Path to JSON tuning file")
	captureMode = flag.Bool("capture", false, "Run a capture agent session alongside the service")
	gpsPort     = flag.String("gps-port", "", "Serial GPS device to read NMEA from (e.g. /dev/ttyUSB0)")
	gpsPcap     = flag.String("gps-pcap", "", "NMEA-over-UDP packet capture to replay (requires pcap build tag)")
	gpsUDPPort  = flag.Int("gps-udp-port", 10110, "UDP port carrying NMEA in the replayed capture")
	framesDir   = flag.String("frames-dir", "", "Directory of JPEG frames to play back as the frame source")
	cameraDev   = flag.Int("camera", -1, "Camera device index (requires gocv build tag)")
	operator    = flag.String("operator", "", "Operator id recorded on capture sessions (overrides config)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	// The migrate subcommand bypasses the service entirely.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrate(os.Args[2:])
		return
	}

	// Endpoint tokens and similar secrets come from the environment; a local
	// .env file is optional.
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded environment from .env")
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("roadeye %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptyConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(database, cfg).ServeMux()
		database.AttachAdminRoutes(mux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("roadeye %s listening on %s", version.Version, *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	if *captureMode || *devMode {
		if err := runCaptureAgent(ctx, &wg, cfg, database); err != nil {
			stop()
			log.Fatalf("Failed to start capture agent: %v", err)
		}
	}

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// runMigrate handles `roadeye migrate <command>`, peeling off the -db option
// before dispatching.
func runMigrate(args []string) {
	dbPath := "roadeye.db"
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] == "-db" && i+1 < len(args) {
			dbPath = args[i+1]
			i++
			continue
		}
		rest = append(rest, args[i])
	}
	db.RunMigrateCommand(rest, dbPath)
}

// runCaptureAgent wires a capture session from the configured collaborators
// and ties its lifecycle to ctx. The session summary lands in
// capture_sessions on shutdown.
func runCaptureAgent(ctx context.Context, wg *sync.WaitGroup, cfg *config.Config, database *db.DB) error {
	clock := timeutil.RealClock{}
	thresholds := road.Thresholds{
		GoodMaxDefects: cfg.GetGoodMaxDefects(),
		FairMaxDefects: cfg.GetFairMaxDefects(),
	}
	operatorID := cfg.GetOperatorID()
	if *operator != "" {
		operatorID = *operator
	}

	watcher := location.NewWatcher(cfg.GetLocationMaxAge(), clock)
	switch {
	case *devMode && *gpsPort == "" && *gpsPcap == "":
		sim := location.NewSimulated(geo.Coordinate{Lat: 28.6139, Lng: 77.2090}, 45, 8, time.Second, clock)
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := sim.Run(ctx); err != nil && err != context.Canceled {
				log.Printf("simulated GPS stopped: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			watcher.Run(ctx, sim.Fixes())
		}()
	case *gpsPort != "":
		nmea, err := location.OpenSerialNMEA(*gpsPort, location.PortOptions{}, clock)
		if err != nil {
			return fmt.Errorf("failed to open GPS port %s: %w", *gpsPort, err)
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := nmea.Run(ctx); err != nil && err != context.Canceled {
				log.Printf("GPS reader stopped: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			watcher.Run(ctx, nmea.Fixes())
		}()
	case *gpsPcap != "":
		fixes := make(chan location.Fix, 16)
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := location.ReplayPCAP(ctx, *gpsPcap, *gpsUDPPort, fixes, location.ReplayConfig{SpeedMultiplier: 1}); err != nil {
				log.Printf("GPS replay stopped: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			watcher.Run(ctx, fixes)
		}()
	default:
		return fmt.Errorf("capture mode needs a geolocator: -dev, -gps-port or -gps-pcap")
	}

	var frames framesource.Source
	switch {
	case *framesDir != "":
		dir, err := framesource.NewDir(*framesDir, clock)
		if err != nil {
			return fmt.Errorf("failed to open frames directory: %w", err)
		}
		frames = dir
	case *cameraDev >= 0:
		cam, err := framesource.OpenCamera(*cameraDev, clock)
		if err != nil {
			return fmt.Errorf("failed to open camera %d: %w", *cameraDev, err)
		}
		frames = cam
	case *devMode:
		frames = framesource.NewSynthetic(640, 480, clock)
	default:
		return fmt.Errorf("capture mode needs a frame source: -dev, -frames-dir or -camera")
	}

	httpClient := httputil.NewStandardClient(http.DefaultClient)

	var classifier capture.Classifier
	if *devMode {
		classifier = classify.NewSimulated(time.Now().UnixNano(), thresholds)
	} else {
		classifier = classify.NewHTTPClassifier(cfg.GetClassifierEndpoint(), httpClient, thresholds, 10*time.Second)
	}

	endpoints := cfg.GetSubmitEndpoints()
	if *devMode {
		// Loop back into our own archive API.
		addr := *listen
		if strings.HasPrefix(addr, ":") {
			addr = "127.0.0.1" + addr
		}
		endpoints = []string{"http://" + addr}
	}
	submitter, err := store.NewClient(endpoints, operatorID, httpClient, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to build submitter: %w", err)
	}

	session, err := capture.NewSession(capture.SessionConfig{
		Geolocator: watcher,
		Frames:     frames,
		Classifier: classifier,
		Submitter:  submitter,
		Interval:   cfg.GetCaptureInterval(),
		Thresholds: thresholds,
		Clock:      clock,
		Operator:   operatorID,
	})
	if err != nil {
		return err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		// The geolocator needs a first fix before the session can start.
		startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		for {
			if err := session.Start(ctx); err == nil {
				break
			} else if startCtx.Err() != nil {
				log.Printf("capture agent never became ready: %v", err)
				return
			}
			select {
			case <-time.After(time.Second):
			case <-startCtx.Done():
			}
		}
		log.Printf("capture session %s started (operator %s)", session.ID(), operatorID)

		record := &db.CaptureSession{
			ID:        session.ID(),
			Operator:  operatorID,
			StartedAt: time.Now().UTC(),
		}
		if err := database.CreateCaptureSession(record); err != nil {
			log.Printf("failed to record capture session: %v", err)
		}

		<-ctx.Done()
		if err := session.Stop(); err != nil {
			log.Printf("failed to stop capture session: %v", err)
			return
		}

		result := <-session.Results()
		if result.Err != nil {
			log.Printf("session report failed: %v", result.Err)
		}
		if result.Report == nil {
			return
		}

		end := time.Now().UTC()
		record.EndedAt = &end
		record.SampleCount = result.Report.TotalSamples
		record.GoodCount = result.Report.Distribution[road.QualityGood].Count
		record.FairCount = result.Report.Distribution[road.QualityFair].Count
		record.PoorCount = result.Report.Distribution[road.QualityPoor].Count
		record.DistanceMeters = result.Report.TotalDistanceMeters
		if err := database.FinishCaptureSession(record); err != nil {
			log.Printf("failed to finish capture session record: %v", err)
		}
		log.Printf("capture session %s finished: %d samples over %.0f m",
			session.ID(), record.SampleCount, record.DistanceMeters)
	}()

	return nil
}
