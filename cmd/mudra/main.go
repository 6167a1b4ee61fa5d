package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log.Init(cfg.LogLevel)

	if err := run(cfg); err != nil {
		log.Error("mudra failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	dataDir, err := cfg.DataPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(filepath.Join(dataDir, "mudra.db"))
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	pcfg, err := startupPipeline(cfg, st)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := server.NewHub(cfg.Screen(), log.L())
	go hub.Run(ctx)

	dcfg := detector.DefaultConfig()
	dcfg.MaxHands = cfg.MaxHands
	dcfg.ScriptPath = cfg.ScriptPath
	a, err := app.New(app.Config{
		Camera: capture.Options{
			DeviceID: cfg.CameraID,
			Width:    cfg.Width,
			Height:   cfg.Height,
			FPS:      cfg.FPS,
		},
		MotionThresh: cfg.MotionThresh,
		Mirror:       cfg.Mirror,
		Pipeline:     pcfg,
		Detector:     dcfg,
	}, hub)
	if err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		return err
	}
	defer a.Stop()
	a.SetEnabled(!cfg.Tray)

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir(dataDir)
	}
	if staticDir != "" {
		log.Info("serving static files", "dir", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		Store:     st,
		Hub:       hub,
		State:     a,
		Applier:   a,
	}).HTTPServer(cfg.Addr)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// The tray owns the main goroutine until it quits.
	if cfg.Tray {
		runTray(ctx, a, "http://"+cfg.Addr)
		stop()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// startupPipeline picks the pipeline configuration: the profile named by
// MUDRA_PROFILE, else the remembered active profile, else the environment.
func startupPipeline(cfg config.Config, st *store.Store) (pipeline.Config, error) {
	if cfg.Profile != "" {
		p, err := st.Profiles().GetByName(cfg.Profile)
		if err != nil {
			return pipeline.Config{}, fmt.Errorf("profile %q: %w", cfg.Profile, err)
		}
		if err := st.Settings().Set(store.SettingActiveProfile, p.ID); err != nil {
			return pipeline.Config{}, err
		}
		log.Info("using profile", "name", p.Name)
		return p.Settings, p.Settings.Validate()
	}

	p, err := st.ActiveProfile()
	switch {
	case err == nil:
		log.Info("using active profile", "name", p.Name)
		return p.Settings, p.Settings.Validate()
	case !errors.Is(err, store.ErrNotFound):
		return pipeline.Config{}, fmt.Errorf("active profile: %w", err)
	}
	return cfg.Pipeline()
}

func runTray(ctx context.Context, a *app.App, url string) {
	t := tray.New(a.Enabled())
	t.OnToggle(a.SetEnabled)
	t.OnSettings(func() { openBrowser(url) })

	go func() {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				t.Quit()
				return
			case <-ticker.C:
				t.SetStates(a.States())
			}
		}
	}()

	t.Run()
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("open browser", "error", err)
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <dataDir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
