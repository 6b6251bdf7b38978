package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/box-measure/internal/capture"
	"github.com/ironsheep/box-measure/internal/config"
	"github.com/ironsheep/box-measure/internal/httpapi"
	"github.com/ironsheep/box-measure/internal/imaging"
	"github.com/ironsheep/box-measure/internal/measure"
	"github.com/ironsheep/box-measure/internal/server"
	"github.com/ironsheep/box-measure/internal/sink"
	"github.com/ironsheep/box-measure/internal/watch"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "--version", "-v", "version":
		fmt.Printf("box-measure %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		printHelp()
		return
	case "measure":
		err = runMeasure(args)
	case "watch":
		err = runWatch(args)
	case "serve-mcp":
		err = runServeMCP(args)
	case "serve-http":
		err = runServeHTTP(args)
	case "config":
		err = runConfig(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		printHelp()
		os.Exit(2)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "box-measure %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("box-measure - measure an object inside a reference enclosure from two camera views")
	fmt.Println()
	fmt.Println("Usage: box-measure <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  measure      Measure one top/side frame pair and print the summary")
	fmt.Println("  watch        Capture continuously from two frame directories")
	fmt.Println("  serve-mcp    Serve the MCP tools over stdin/stdout")
	fmt.Println("  serve-http   Serve the HTTP API")
	fmt.Println("  config       Print the effective configuration, or write it with -write <file>")
	fmt.Println("  version      Print version information")
	fmt.Println("  help         Print this help message")
	fmt.Println()
	fmt.Println("Every command except version and help accepts -config <file>. Without it,")
	fmt.Printf("%s is used when present, otherwise built-in defaults.\n", config.GetConfigPath())
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  BOX_MEASURE_LOG_LEVEL=debug        Enable debug logging")
	fmt.Println("  BOX_MEASURE_LOG_FORMAT=json        Log as JSON")
	fmt.Println("  BOX_MEASURE_HTTP_ADDR=:8080        HTTP listen address")
	fmt.Println("  BOX_MEASURE_ENCLOSURE_CM=10        Enclosure side length")
	fmt.Println("  BOX_MEASURE_STRIP_CM=9             Side reference strip length")
	fmt.Println("  BOX_MEASURE_DARKNESS_THRESHOLD=50  Dark segmentation threshold")
}

// loadConfig reads the named file, or the default path when it exists, applies
// environment overrides and validates the result.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path == "" {
		if def := config.GetConfigPath(); fileExists(def) {
			path = def
		}
	}
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// newLogger writes to stderr so stdout stays free for results and the MCP protocol.
func newLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func setup(fs *flag.FlagSet, args []string) (*config.Config, *logrus.Logger, error) {
	configPath := fs.String("config", "", "path to a JSON config file")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, newLogger(cfg.Log), nil
}

func runMeasure(args []string) error {
	fs := flag.NewFlagSet("measure", flag.ContinueOnError)
	topPath := fs.String("top", "", "top-camera frame")
	sidePath := fs.String("side", "", "side-camera frame")
	dumpDir := fs.String("dump", "", "directory to write segmentation masks into")
	asJSON := fs.Bool("json", false, "print the record as JSON instead of the summary")
	cfg, log, err := setup(fs, args)
	if err != nil {
		return err
	}
	if *topPath == "" || *sidePath == "" {
		return errors.New("both -top and -side are required")
	}

	top, err := imaging.LoadFrame(*topPath)
	if err != nil {
		return fmt.Errorf("top frame: %w", err)
	}
	side, err := imaging.LoadFrame(*sidePath)
	if err != nil {
		return fmt.Errorf("side frame: %w", err)
	}

	session, err := measure.NewSession(cfg, log)
	if err != nil {
		return err
	}

	if *dumpDir != "" {
		if err := dumpMasks(session, top, side, *dumpDir); err != nil {
			return err
		}
		log.WithField("dir", *dumpDir).Info("segmentation masks written")
	}

	rec, err := session.Measure(top, side)
	if err != nil {
		return err
	}
	sink.LogSink{Log: log}.Publish(rec)

	if *asJSON {
		return writeJSON(rec)
	}
	fmt.Println(rec.Summary())
	return nil
}

// dumpMasks writes the top mask and both side masks as PNGs.
func dumpMasks(session *measure.Session, top, side image.Image, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create dump directory: %w", err)
	}

	topMask, err := session.Top.Segmenter.Top(top)
	if err != nil {
		return fmt.Errorf("top frame: %w", err)
	}
	sideMasks, err := session.Height.Segmenter.Side(side)
	if err != nil {
		return fmt.Errorf("side frame: %w", err)
	}

	masks := map[string]*imaging.Mask{
		"top_mask.png":       topMask,
		"side_reference.png": sideMasks.Reference,
		"side_object.png":    sideMasks.Object,
	}
	for name, m := range masks {
		if err := imaging.SaveMask(filepath.Join(dir, name), m); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	topDir := fs.String("top-dir", "", "directory of top-camera frames (overrides capture.top_dir)")
	sideDir := fs.String("side-dir", "", "directory of side-camera frames (overrides capture.side_dir)")
	serveHTTP := fs.Bool("http", false, "also serve the HTTP API")
	cfg, log, err := setup(fs, args)
	if err != nil {
		return err
	}
	if *topDir != "" {
		cfg.Capture.TopDir = *topDir
	}
	if *sideDir != "" {
		cfg.Capture.SideDir = *sideDir
	}

	cache := imaging.NewFrameCache()
	topCam, err := capture.NewDirCamera(cfg.Capture.TopDir, cache)
	if err != nil {
		return fmt.Errorf("top camera: %w", err)
	}
	sideCam, err := capture.NewDirCamera(cfg.Capture.SideDir, cache)
	if err != nil {
		return fmt.Errorf("side camera: %w", err)
	}

	session, err := measure.NewSession(cfg, log)
	if err != nil {
		return err
	}

	latest := sink.NewLatestSink()
	out := sink.Multi{sink.LogSink{Log: log}, latest}

	interval := time.Duration(cfg.Capture.IntervalMs) * time.Millisecond
	rig := capture.NewRig(topCam, sideCam, interval, time.Duration(cfg.Capture.MaxSkewMs)*time.Millisecond, log)
	w := watch.New(rig, session, out, interval, time.Duration(cfg.Capture.MeasureIntervalMs)*time.Millisecond, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serveHTTP {
		srv := newHTTPServer(cfg, session, latest, out, log)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("http server stopped")
			}
		}()
		defer shutdown(srv, log)
	}

	// Each line on stdin requests a measurement.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			w.Trigger()
		}
	}()

	log.WithFields(logrus.Fields{
		"top_dir":  cfg.Capture.TopDir,
		"side_dir": cfg.Capture.SideDir,
		"interval": interval,
	}).Info("watching; press Enter to measure")
	return w.Run(ctx)
}

// runConfig prints the merged configuration (defaults, file, environment) as JSON,
// or saves it so it can be edited and passed back with -config.
func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	writePath := fs.String("write", "", "file to save the configuration to instead of printing it")
	cfg, log, err := setup(fs, args)
	if err != nil {
		return err
	}
	if *writePath == "" {
		return writeJSON(cfg)
	}
	if err := cfg.SaveToFile(*writePath); err != nil {
		return err
	}
	log.WithField("path", *writePath).Info("configuration written")
	return nil
}

func runServeMCP(args []string) error {
	fs := flag.NewFlagSet("serve-mcp", flag.ContinueOnError)
	cfg, log, err := setup(fs, args)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
	}).Debug("box-measure MCP server starting")

	srv, err := server.New(cfg, log)
	if err != nil {
		return err
	}
	return srv.Run()
}

func runServeHTTP(args []string) error {
	fs := flag.NewFlagSet("serve-http", flag.ContinueOnError)
	cfg, log, err := setup(fs, args)
	if err != nil {
		return err
	}

	session, err := measure.NewSession(cfg, log)
	if err != nil {
		return err
	}
	latest := sink.NewLatestSink()
	srv := newHTTPServer(cfg, session, latest, sink.Multi{sink.LogSink{Log: log}, latest}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.WithField("addr", cfg.HTTP.Addr).Info("http server listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown(srv, log)
		return nil
	}
}

func newHTTPServer(cfg *config.Config, session *measure.Session, latest *sink.LatestSink, out sink.ResultSink, log *logrus.Logger) *http.Server {
	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	h := httpapi.NewHandler(session, latest, out, log, Version)
	return &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(h, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func shutdown(srv *http.Server, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
}
