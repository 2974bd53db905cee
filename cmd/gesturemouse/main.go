package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/ayusman/gesturemouse/internal/app"
	"github.com/ayusman/gesturemouse/internal/capture"
	"github.com/ayusman/gesturemouse/internal/config"
	"github.com/ayusman/gesturemouse/internal/detector"
	"github.com/ayusman/gesturemouse/internal/gesture"
	"github.com/ayusman/gesturemouse/internal/inject"
	"github.com/ayusman/gesturemouse/internal/pointer"
	"github.com/ayusman/gesturemouse/internal/profile"
	"github.com/ayusman/gesturemouse/internal/store"
	"github.com/ayusman/gesturemouse/internal/tray"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "path to the YAML config file")
	mode := flag.String("mode", "", "run this mode headless instead of showing the tray (gesture, normal, presentation, gaming)")
	camera := flag.String("camera", "", "camera indices to try, e.g. \"1,0\"")
	dryRun := flag.Bool("dry-run", false, "log actions instead of moving the mouse")
	history := flag.Int("history", 0, "print the N most recent runs and exit")
	flag.Parse()

	fmt.Println("GestureMouse - Hand Gesture Mouse Control")

	config.LoadDotEnv()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = *mode
		case "camera":
			ids, err := config.ParseDevices(*camera)
			if err != nil {
				log.Fatalf("Invalid -camera: %v", err)
			}
			cfg.Camera.Devices = ids
		case "dry-run":
			cfg.DryRun = *dryRun
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	if *history > 0 {
		if err := printHistory(st, *history); err != nil {
			log.Fatalf("Failed to read history: %v", err)
		}
		return
	}

	var injector inject.Injector
	if cfg.DryRun {
		log.Println("Dry run: actions are logged, not performed")
		injector = inject.NewRecorder(true)
	} else {
		injector = inject.NewRobot()
	}

	screen := pointer.Size{W: float64(cfg.Screen.Width), H: float64(cfg.Screen.Height)}
	if cfg.Screen.Width == 0 {
		w, h := inject.ScreenSize()
		screen = pointer.Size{W: float64(w), H: float64(h)}
	}
	log.Printf("Screen size: %.0fx%.0f", screen.W, screen.H)

	runCfg := app.Config{
		Store:           st,
		NewCamera:       func() capture.Camera { return capture.NewCamera(cfg.CaptureConfig()) },
		NewDetector:     func() (detector.Detector, error) { return detector.NewMediaPipeDetector(cfg.DetectorConfig()) },
		Injector:        injector,
		Screen:          screen,
		Profile:         cfg.Profile,
		ExitGrace:       cfg.ExitGrace,
		Reacquire:       cfg.ReacquireConfig(),
		IdleThrottle:    cfg.Camera.IdleThrottle,
		MotionThreshold: cfg.Camera.MotionThreshold,
		IdleFPS:         cfg.Camera.IdleFPS,
		IdleAfter:       cfg.Camera.IdleAfter,
	}

	if cfg.Mode != "" {
		if err := runHeadless(app.NewRunner(runCfg), cfg.Mode); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	runTray(runCfg)
}

// runHeadless runs one mode until it ends or the process is interrupted.
func runHeadless(runner *app.Runner, mode string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := runner.Start(mode)
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", mode, err)
	}
	fmt.Printf("Running %s mode (Ctrl+C to stop)\n", mode)

	select {
	case <-ctx.Done():
		if err := runner.Stop(h); err != nil {
			return err
		}
	case <-h.Done():
	}

	if err := h.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s mode ended: %w", mode, err)
	}
	fmt.Printf("%s mode ended: %s\n", mode, h.Reason())
	return nil
}

func runTray(runCfg app.Config) {
	var modes []tray.Mode
	for _, p := range profile.All() {
		tooltip := p.Description
		if p.Has(gesture.RuleExit) {
			tooltip += " (thumb down to stop)"
		}
		modes = append(modes, tray.Mode{ID: string(p.ID), Title: p.Name, Tooltip: tooltip})
	}
	t := tray.New(modes)

	runCfg.OnEnd = func(*app.Handle) { t.SetActive("") }
	runner := app.NewRunner(runCfg)

	t.OnStart(func(mode string) {
		if _, err := runner.Switch(mode); err != nil {
			log.Printf("Failed to start %s: %v", mode, err)
			return
		}
		t.SetActive(mode)
	})
	t.OnStop(func() {
		if err := runner.StopCurrent(); err != nil {
			log.Printf("Failed to stop: %v", err)
		}
	})
	t.OnQuit(func() {
		if err := runner.StopCurrent(); err != nil {
			log.Printf("Failed to stop: %v", err)
		}
	})

	t.Run()
}

func printHistory(st *store.Store, limit int) error {
	sessions, err := st.Sessions().List(limit)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tMODE\tDURATION\tENDED\tACTIONS")
	for _, s := range sessions {
		duration, reason := "-", "running"
		if !s.Running() {
			duration = s.Duration().Round(time.Second).String()
			reason = s.EndReason
		}

		counts, err := st.Sessions().Counts(s.ID)
		if err != nil {
			return err
		}
		actions := ""
		for i, c := range counts {
			if i > 0 {
				actions += " "
			}
			actions += fmt.Sprintf("%s=%d", c.Kind, c.Count)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.StartedAt.Local().Format("2006-01-02 15:04"), s.Mode, duration, reason, actions)
	}
	return w.Flush()
}
