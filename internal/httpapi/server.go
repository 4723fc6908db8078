// Package httpapi exposes the weex daemon's HTTP surface: health/ready
// probes, Prometheus metrics, the current/history read API, and vendor
// weather-station upload endpoints (Ecowitt and Weather Underground
// dialects), grounded on
// original_source/crates/weewx-cli/src/lib.rs's axum Router and route
// handlers.
package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ask-23/weex/internal/livestate"
	"github.com/ask-23/weex/internal/packet"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	statusOK       = map[string]string{"status": "ok"}
	statusNotReady = map[string]string{"status": "not ready"}
)

// Logger is the narrow logging surface the HTTP layer needs.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Ingestor receives a canonical packet decoded from a vendor upload. The
// daemon wires this to the archive aggregator and live-state injection;
// kept as an interface here so the HTTP layer has no import-time
// dependency on either.
type Ingestor interface {
	IngestPacket(pkt packet.WeatherPacket) error
}

// Server wires the weex HTTP surface onto a gorilla/mux router.
type Server struct {
	router          *mux.Router
	state           *livestate.State
	ingest          Ingestor
	log             Logger
	anonStationOnce string
}

// New constructs a Server with every route registered.
func New(state *livestate.State, ingest Ingestor, log Logger) *Server {
	s := &Server{
		router:          mux.NewRouter(),
		state:           state,
		ingest:          ingest,
		log:             log,
		anonStationOnce: "anon-" + uuid.NewString(),
	}
	s.routes()
	return s
}

// anonymousStationID is the fallback station name assigned to uploads
// that carry no identity field at all, stable for the process lifetime.
func (s *Server) anonymousStationID() string { return s.anonStationOnce }

// Handler returns the root http.Handler to pass to an http.Server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/current", s.handleCurrent).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/history", s.handleHistory).Methods(http.MethodGet)

	s.router.HandleFunc("/ingest/ecowitt", s.handleEcowittGet).Methods(http.MethodGet)
	s.router.HandleFunc("/ingest/ecowitt", s.handleEcowittPost).Methods(http.MethodPost)
	s.router.HandleFunc("/data", s.handleEcowittPost).Methods(http.MethodPost)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.state.CountRequest("/healthz")
	writeJSON(w, statusOK)
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	s.state.CountRequest("/readyz")
	if !s.state.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, statusNotReady)
		return
	}
	writeJSON(w, statusOK)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	s.state.CountRequest("/api/v1/current")
	pkt, ok := s.state.Latest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, pkt)
}

const defaultHistoryLimit = 100

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.state.CountRequest("/api/v1/history")
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > packet.HistoryCap {
		limit = packet.HistoryCap
	}
	history := s.state.History()
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	writeJSON(w, history)
}

// handleEcowittGet serves the Ecowitt/WU dialect's GET-with-query-string
// convention, used by real stations polling a remote endpoint.
func (s *Server) handleEcowittGet(w http.ResponseWriter, r *http.Request) {
	s.state.CountRequest("/ingest/ecowitt")
	s.ingestVendorUpload(w, r.URL.Query())
}

// handleEcowittPost serves the vendor's POST-with-form-body convention.
// Per SPEC_FULL.md §1 item 2, GET and POST deliveries are treated
// identically once the parameters are extracted; a malformed body still
// returns 200 so the station doesn't treat the daemon as down and start
// local buffering (matching
// original_source/crates/weewx-cli/tests/http_post_ingest.rs).
func (s *Server) handleEcowittPost(w http.ResponseWriter, r *http.Request) {
	s.state.CountRequest(r.URL.Path)
	if err := r.ParseForm(); err != nil {
		s.log.Warnf("httpapi: malformed upload body: %v", err)
		writeJSON(w, statusOK)
		return
	}
	s.ingestVendorUpload(w, r.Form)
}

func (s *Server) ingestVendorUpload(w http.ResponseWriter, values url.Values) {
	station := values.Get("ID")
	if station == "" {
		station = values.Get("PASSKEY")
	}
	if station == "" {
		// Per spec.md §4.5's translation table, stationtype is stored as
		// the station field when no ID/PASSKEY identity is present.
		station = values.Get("stationtype")
	}
	if station == "" {
		// Older firmware on some stations omits every identity field.
		// Assign a stable-for-this-process anonymous station ID rather
		// than letting every such upload collapse into the empty string
		// and overwrite one another's live state/history.
		station = s.anonymousStationID()
	}
	pkt := parseEcowitt(values, station)
	if err := s.ingest.IngestPacket(pkt); err != nil {
		s.log.Errorf("httpapi: ingest packet: %v", err)
	}
	writeJSON(w, statusOK)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
