// Package api provides the local HTTP control API and progress stream.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"

	"midiautomate/internal/config"
	"midiautomate/internal/protocol"
	"midiautomate/internal/rows"
	"midiautomate/internal/runner"
)

// Server provides HTTP API for local control
type Server struct {
	configMgr *config.Manager
	runner    *runner.Runner
	wsMgr     *WSManager
	listener  net.Listener
}

// NewServer creates a new API server and subscribes it to runner events
func NewServer(configMgr *config.Manager, r *runner.Runner) *Server {
	s := &Server{
		configMgr: configMgr,
		runner:    r,
	}
	s.wsMgr = newWSManager(s)
	go s.wsMgr.start()
	r.Subscribe(s.wsMgr.forward)
	return s
}

// Handler returns the API routes wrapped in the auth and recover middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/start", s.handleStart)
	mux.HandleFunc("/api/abort", s.handleAbort)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/validate", s.handleValidate)
	mux.HandleFunc("/ws", s.wsMgr.handleWebSocket)
	return s.authMiddleware(s.recoverMiddleware(mux))
}

// Start starts the API server on the loopback interface. It blocks until
// the server stops.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		log.Printf("API: Failed to listen on %s: %v", addr, err)
		return err
	}
	s.listener = ln
	log.Printf("API: Listening on http://%s", addr)

	server := &http.Server{Handler: s.Handler()}
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		log.Printf("API: Server stopped: %v", err)
		return err
	}
	return nil
}

// Stop closes the listener
func (s *Server) Stop() error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("API: Recovered from panic: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks API token if configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("API: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		if !sameOrigin(r) {
			log.Printf("API: Rejected request from origin %q", r.Header.Get("Origin"))
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		// Skip auth for health check
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		// Browsers cannot set headers on page loads or WebSocket upgrades,
		// so the token is also accepted as a query parameter.
		if token := s.configMgr.Get().APIToken; token != "" {
			if r.Header.Get("Authorization") != "Bearer "+token && r.URL.Query().Get("token") != token {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// sameOrigin accepts requests addressed to a loopback host that carry no
// Origin or come from the status page served by this host.
func sameOrigin(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.Host)
	if err != nil {
		host = r.Host
	}
	if !isLoopback(host) {
		return false
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Scheme == "http" && u.Host == r.Host
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusPayload snapshots the runner for the wire
func (s *Server) statusPayload() protocol.StatePayload {
	st := s.runner.Status()
	p := protocol.StatePayload{State: string(st.State), Total: st.Total, Last: st.Last}
	if st.Outcome != nil {
		p.Outcome = protocol.NewOutcome(*st.Outcome)
	}
	return p
}

// csvPath returns the csv query parameter, falling back to the saved path
func (s *Server) csvPath(r *http.Request) string {
	if path := r.URL.Query().Get("csv"); path != "" {
		return path
	}
	return s.configMgr.Get().CSVPath
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.statusPayload())
}

// handleStart handles POST /api/start[?csv=<path>]
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := s.csvPath(r)
	if path == "" {
		http.Error(w, "Please choose a valid CSV file.", http.StatusBadRequest)
		return
	}
	loaded, err := rows.Load(path)
	var vErr *rows.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"problems": vErr.Problems})
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := s.runner.Start(loaded); err != nil {
		if errors.Is(err, runner.ErrBusy) {
			http.Error(w, "A run is already in progress", http.StatusConflict)
			return
		}
		log.Printf("API: Start error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cfg := s.configMgr.Get()
	if cfg.CSVPath != path {
		cfg.CSVPath = path
		s.configMgr.Set(cfg)
		if err := s.configMgr.Save(); err != nil {
			log.Printf("API: Failed to remember CSV path: %v", err)
		}
	}

	log.Printf("API: Started run of %d rows from %s", len(loaded), path)
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"status": "started", "rows": len(loaded)})
}

// handleAbort handles POST /api/abort
func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"aborted": s.runner.Abort()})
}

// handleValidate handles GET /api/validate[?csv=<path>]
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	path := s.csvPath(r)
	if path == "" {
		http.Error(w, "Missing csv parameter", http.StatusBadRequest)
		return
	}

	loaded, err := rows.Load(path)
	problems := []string{}
	var vErr *rows.ValidationError
	if errors.As(err, &vErr) {
		problems = vErr.Problems
	} else if err != nil {
		problems = append(problems, err.Error())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":    len(problems) == 0,
		"rows":     len(loaded),
		"problems": problems,
	})
}

// handleConfig handles GET (read) and POST (update) for configuration
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.configMgr.Get())

	case http.MethodPost:
		if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct != "application/json" {
			http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
			return
		}
		newCfg := *config.DefaultConfig()
		if err := json.NewDecoder(r.Body).Decode(&newCfg); err != nil {
			http.Error(w, "Invalid configuration data", http.StatusBadRequest)
			return
		}
		if err := newCfg.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		log.Printf("API: Receiving configuration update from %s", r.RemoteAddr)
		s.configMgr.Set(newCfg)
		if err := s.configMgr.Save(); err != nil {
			log.Printf("API: Failed to save received config: %v", err)
			http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// OpenBrowser opens url in the default browser
func OpenBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "darwin":
		err = exec.Command("open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		err = exec.Command("xdg-open", url).Start()
	}
	if err != nil {
		log.Printf("API: Failed to open browser: %v", err)
	}
}
