// Command rayhunter-daemon is rayhunter-go's on-device process: it opens
// the diag character device, runs the capture and analysis tasks, and
// serves the HTTP surface described in spec §6. Its startup and shutdown
// sequencing follows ehrlich-b-go-ublk's cmd/ublk-mem/main.go: flag
// parsing, a structured logger installed as process default, a
// context.WithCancel cancelled on SIGINT/SIGTERM, a SIGUSR1 handler that
// dumps goroutine stacks, and a bounded cleanup timeout before exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rayhunter-go/rayhunter/internal/analysis"
	"github.com/rayhunter-go/rayhunter/internal/config"
	"github.com/rayhunter-go/rayhunter/internal/constants"
	"github.com/rayhunter-go/rayhunter/internal/diagdevice"
	"github.com/rayhunter-go/rayhunter/internal/httpapi"
	"github.com/rayhunter-go/rayhunter/internal/keyinput"
	"github.com/rayhunter-go/rayhunter/internal/logging"
	"github.com/rayhunter-go/rayhunter/internal/metrics"
	"github.com/rayhunter-go/rayhunter/internal/notify"
	"github.com/rayhunter-go/rayhunter/internal/pipeline"
	"github.com/rayhunter-go/rayhunter/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "/etc/rayhunter/config.toml", "Path to rayhunter_config.toml")
		verbose    = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config, using defaults", "path", *configPath, "error", err)
		cfg = config.Default()
	}

	storeRoot := resolveStoreRoot(cfg, logger)

	st, err := store.Open(storeRoot)
	if err != nil {
		logger.Error("failed to open recording store", "path", storeRoot, "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	observer, err := metrics.NewPrometheus(registry)
	if err != nil {
		logger.Error("failed to register metrics", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	device, err := diagdevice.Open(ctx, diagdevice.Config{Logger: logger})
	if err != nil {
		logger.Error("failed to open diag device", "error", err)
		os.Exit(1)
	}
	defer device.Close()

	harness := analysis.NewHarness(analysis.BuiltinAnalyzers(), cfg.Analyzers)

	ctrl := pipeline.NewControlChannel()
	captureTask := pipeline.NewCaptureTask(device, st, ctrl).WithObserver(observer)
	analysisTask := pipeline.NewAnalysisTask(st, harness).WithObserver(observer).WithDevice(string(cfg.Device))
	queue := pipeline.NewAnalysisQueue(analysisTask, st)

	cfgStore := httpapi.NewConfigStore(*configPath, cfg)
	addr := fmt.Sprintf(":%d", cfg.Port)
	server := httpapi.NewServer(addr, st, harness, ctrl, queue, cfgStore)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: ":9090", Handler: metricsMux}

	notifier := notify.NewWorker(cfg.NtfyURL, cfg.EnabledNotifications)

	tasksDone := make(chan error, 4)
	go func() { tasksDone <- captureTask.Run(ctx) }()
	go func() { tasksDone <- notifier.Run(ctx) }()
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server stopped", "error", err)
			os.Exit(1)
		}
		tasksDone <- nil
	}()
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", "error", err)
		}
	}()

	if cfg.KeyInputMode != 0 {
		source, err := newEvdevSource("/dev/input/event0")
		if err != nil {
			logger.Warn("key input disabled, failed to open device", "error", err)
		} else {
			debouncer := keyinput.NewDebouncer(source, ctrl)
			go func() { tasksDone <- debouncer.Run(ctx) }()
		}
	}

	logger.Info("rayhunter-daemon started", "device", cfg.Device, "port", cfg.Port, "store", storeRoot)

	stackDumpCh := make(chan os.Signal, 1)
	signal.Notify(stackDumpCh, syscall.SIGUSR1)
	go func() {
		for range stackDumpCh {
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			fmt.Fprintf(os.Stderr, "=== GOROUTINE STACK DUMP ===\n%s\n", buf[:n])
			pprof.Lookup("goroutine").WriteTo(os.Stderr, 2)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("received shutdown signal")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
	metricsServer.Shutdown(shutdownCtx)

	select {
	case <-tasksDone:
	case <-time.After(2 * time.Second):
		logger.Info("cleanup timeout, forcing exit")
	}

	os.Exit(0)
}

// resolveStoreRoot applies spec §6's debug-mode substitution: if debug_mode
// is set and the configured store directory doesn't exist yet, a temp
// directory is substituted rather than creating a possibly-wrong path on a
// developer's machine.
func resolveStoreRoot(cfg *config.Config, logger *logging.Logger) string {
	if !cfg.DebugMode {
		return cfg.QmdlStorePath
	}
	if _, err := os.Stat(cfg.QmdlStorePath); err == nil {
		return cfg.QmdlStorePath
	}
	dir, err := os.MkdirTemp("", "rayhunter-debug-store-")
	if err != nil {
		logger.Warn("failed to create debug store dir, using configured path anyway", "error", err)
		return cfg.QmdlStorePath
	}
	logger.Warn("debug_mode: configured store path missing, using temp dir instead",
		"configured", cfg.QmdlStorePath, "substituted", dir)
	return dir
}

// newEvdevSource opens a raw input character device, exposing it as a
// pipeline.KeyEventSource. This is the one piece of hardware wiring not
// modeled purely as an interface: reading fixed-size records from an
// already-open file is plain I/O, not device-specific logic.
func newEvdevSource(path string) (pipeline.KeyEventSource, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return &evdevSource{f: f}, nil
}

type evdevSource struct {
	f *os.File
}

func (e *evdevSource) ReadEvent(ctx context.Context) ([]byte, error) {
	buf := make([]byte, constants.KeyInputRecordSize)
	if _, err := readFull(e.f, buf); err != nil {
		return nil, err
	}
	return buf, ctx.Err()
}

func readFull(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
