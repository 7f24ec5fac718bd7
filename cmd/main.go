// VEP MIDI AutoMate
// Fills the MIDI controller table of Vienna Ensemble Pro from a CSV file
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"midiautomate/internal/api"
	"midiautomate/internal/automate"
	"midiautomate/internal/config"
	"midiautomate/internal/hotkey"
	"midiautomate/internal/input"
	"midiautomate/internal/osutils"
	"midiautomate/internal/rows"
	"midiautomate/internal/runner"
	"midiautomate/internal/screen"
	"midiautomate/internal/tray"
	"midiautomate/internal/window"
)

const appName = "VEP MIDI AutoMate"

// Exit codes of a one-shot run
const (
	exitCompleted = 0
	exitFailed    = 1
	exitAborted   = 2
)

var (
	version = "1.0.0"
	csvPath = flag.String("csv", "", "CSV file to import (default: the last one used)")
	slow    = flag.Bool("slow", false, "Pause longer after every simulated action")
	check   = flag.Bool("check", false, "Validate the CSV and exit")
	serve   = flag.Bool("serve", false, "Run in the system tray with the local API")
	showVer = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("midiautomate version %s\n", version)
		return
	}

	// Coordinates must be physical pixels before any window is measured
	if err := osutils.SetDPIAware(); err != nil {
		log.Printf("Warning: %v", err)
	}

	// Initialize config
	cfgMgr, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}
	if err := cfgMgr.Load(); err != nil {
		log.Printf("Warning: failed to load config: %v", err)
	}
	if *slow {
		cfg := cfgMgr.Get()
		cfg.SlowMode = true
		cfgMgr.Set(cfg)
	}

	// Handle --check flag
	if *check {
		os.Exit(runCheck(cfgMgr))
	}

	// Handle --serve flag
	if *serve {
		runService(cfgMgr)
		return
	}

	os.Exit(runOnce(cfgMgr))
}

// resolveCSV returns the -csv flag or the saved path, remembering a new one
func resolveCSV(cfgMgr *config.Manager) string {
	cfg := cfgMgr.Get()
	if *csvPath == "" || *csvPath == cfg.CSVPath {
		return cfg.CSVPath
	}
	cfg.CSVPath = *csvPath
	cfgMgr.Set(cfg)
	if err := cfgMgr.Save(); err != nil {
		log.Printf("Warning: failed to save config: %v", err)
	}
	return *csvPath
}

// loadRows reads the CSV, printing every problem found
func loadRows(path string) ([]automate.Row, bool) {
	if path == "" {
		fmt.Println("Please choose a valid CSV file.")
		return nil, false
	}
	loaded, err := rows.Load(path)
	var vErr *rows.ValidationError
	if errors.As(err, &vErr) {
		fmt.Println("CSV problems. Reported row number includes heading row.")
		fmt.Println()
		for _, p := range vErr.Problems {
			fmt.Println(p)
		}
		return nil, false
	}
	if err != nil {
		fmt.Println(err)
		return nil, false
	}
	return loaded, true
}

func runCheck(cfgMgr *config.Manager) int {
	loaded, ok := loadRows(resolveCSV(cfgMgr))
	if !ok {
		return exitFailed
	}
	fmt.Printf("CSV looks good ✓ (%d rows)\n", len(loaded))
	return exitCompleted
}

// engineFactory builds an orchestrator from the current settings
func engineFactory(cfgMgr *config.Manager) func() (runner.Engine, error) {
	windows := window.NewProvider()
	scr := screen.New()
	injector := input.NewInjector()

	return func() (runner.Engine, error) {
		cfg := cfgMgr.Get()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid settings: %w", err)
		}
		return automate.New(windows, scr, injector, cfg.Engine.Options(cfg.SlowMode)), nil
	}
}

func warnIfNotElevated() {
	if runtime.GOOS == "windows" && !osutils.IsAdmin() {
		log.Println("Engine: Not running elevated. Input into an elevated Vienna Ensemble Pro window may be blocked.")
	}
}

// startAbortHotkey registers the configured abort hotkey and starts the hook
func startAbortHotkey(cfgMgr *config.Manager, r *runner.Runner) {
	hkMgr := hotkey.NewManager()
	register := func() {
		hkMgr.Clear()
		hk := cfgMgr.Get().AbortHotkey
		if _, err := hkMgr.Register(hk, func() { r.Abort() }); err != nil {
			log.Printf("Warning: failed to register abort hotkey: %v", err)
			return
		}
		log.Printf("Registered abort hotkey: %s", hk)
	}
	register()
	cfgMgr.RegisterChangeCallback(register)

	if err := hkMgr.Start(); err != nil {
		log.Printf("Warning: Hotkey Engine failed to start: %v", err)
	}
}

func runOnce(cfgMgr *config.Manager) int {
	loaded, ok := loadRows(resolveCSV(cfgMgr))
	if !ok {
		return exitFailed
	}

	r := runner.New(engineFactory(cfgMgr))
	done := make(chan automate.Outcome, 1)
	r.Subscribe(func(ev runner.Event) {
		switch ev.Kind {
		case runner.EventProgress:
			fmt.Println(ev.Text)
		case runner.EventDone:
			done <- ev.Outcome
		}
	})

	startAbortHotkey(cfgMgr, r)
	warnIfNotElevated()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Interrupted, aborting...")
		r.Abort()
	}()

	fmt.Printf("Starting in a moment. Press %s to abort.\n", cfgMgr.Get().AbortHotkey)
	if err := r.Start(loaded); err != nil {
		fmt.Println(err)
		return exitFailed
	}

	out := <-done
	switch out.Status {
	case automate.Completed:
		return exitCompleted
	case automate.Aborted:
		return exitAborted
	}
	return exitFailed
}

func runService(cfgMgr *config.Manager) {
	log.Printf("%s service starting...", appName)

	r := runner.New(engineFactory(cfgMgr))
	startAbortHotkey(cfgMgr, r)
	warnIfNotElevated()

	// Start API server if enabled
	cfg := cfgMgr.Get()
	var apiServer *api.Server
	if cfg.APIEnabled {
		apiServer = api.NewServer(cfgMgr, r)
		go func() {
			if err := apiServer.Start(cfg.APIPort); err != nil {
				log.Printf("API server error: %v", err)
			}
		}()
	}

	// Tray instance
	t := tray.New(appName, appName+": idle")

	startItem := t.AddMenuItem("Start", func() {
		loaded, ok := loadRows(cfgMgr.Get().CSVPath)
		if !ok {
			t.SetTooltip(appName + ": CSV has problems")
			return
		}
		if err := r.Start(loaded); err != nil {
			log.Printf("Start error: %v", err)
		}
	})
	abortItem := t.AddMenuItem("Abort", func() {
		r.Abort()
	})
	t.SetItemEnabled(abortItem, false)

	if apiServer != nil {
		t.AddSeparator()
		t.AddMenuItem("Open status...", func() {
			current := cfgMgr.Get()
			url := fmt.Sprintf("http://127.0.0.1:%d/", current.APIPort)
			if current.APIToken != "" {
				url += "?token=" + current.APIToken
			}
			api.OpenBrowser(url)
		})
	}

	t.AddSeparator()
	t.AddMenuItem("Quit", func() {
		r.Abort()
		t.Stop()
	})

	// Keep the menu and tooltip in step with the runner
	r.Subscribe(func(ev runner.Event) {
		switch ev.Kind {
		case runner.EventProgress:
			t.SetTooltip(appName + ": " + strings.TrimSpace(ev.Text))
		case runner.EventState:
			t.SetItemEnabled(startItem, ev.State == runner.Idle)
			t.SetItemEnabled(abortItem, ev.State == runner.Running)
		case runner.EventDone:
			if ev.Outcome.Status != automate.Completed {
				t.SetTooltip(appName + ": " + ev.Outcome.Reason)
			}
		}
	})

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		r.Abort()
		t.Stop()
	}()

	log.Printf("%s running. Press Ctrl+C to stop.", appName)
	t.Run()

	r.Wait()
	if apiServer != nil {
		apiServer.Stop()
	}
}
