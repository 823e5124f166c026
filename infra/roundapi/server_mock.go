package roundapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/anrusu/fueldist/core/sim"
	"github.com/anrusu/fueldist/infra/logger"
)

// ServerMock exposes the RoundService HTTP contract locally, replaying a
// scripted demand schedule. It backs the offline command and the tests.
type ServerMock struct {
	addr   string
	apiKey string
	log    logger.Logger
	srv    *http.Server

	mu       sync.Mutex
	sessions map[string]bool
	schedule map[int][]DemandEntry

	requests *prometheus.CounterVec
	rejected prometheus.Counter
}

// NewServerMock creates a mock server using the default Prometheus
// registerer. The schedule maps a played day to the demand revealed by that
// round's response.
func NewServerMock(addr, apiKey string, schedule map[int][]DemandEntry) *ServerMock {
	return NewServerMockWithRegistry(addr, apiKey, schedule, prometheus.DefaultRegisterer)
}

// NewServerMockWithRegistry creates a mock server and registers metrics on the
// provided registerer. If reg is nil the default registerer is used.
func NewServerMockWithRegistry(addr, apiKey string, schedule map[int][]DemandEntry, reg prometheus.Registerer) *ServerMock {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	log := logger.New("round-server-mock")

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "round_mock_requests_total",
		Help: "Requests handled by the round mock server",
	}, []string{"endpoint"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "round_mock_rejected_total",
		Help: "Requests rejected by the round mock server",
	})

	if err := reg.Register(requests); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				requests = exist
			} else {
				log.Errorf("existing collector for round_mock_requests_total has wrong type %T", are.ExistingCollector)
			}
		}
	}
	if err := reg.Register(rejected); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(prometheus.Counter); ok {
				rejected = exist
			} else {
				log.Errorf("existing collector for round_mock_rejected_total has wrong type %T", are.ExistingCollector)
			}
		}
	}

	if schedule == nil {
		schedule = map[int][]DemandEntry{}
	}
	return &ServerMock{
		addr:     addr,
		apiKey:   apiKey,
		log:      log,
		sessions: make(map[string]bool),
		schedule: schedule,
		requests: requests,
		rejected: rejected,
	}
}

// Routes returns the handler, usable directly with httptest.
func (s *ServerMock) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/session/start", s.handleStart)
	mux.HandleFunc("/play/round", s.handlePlay)
	mux.HandleFunc("/session/end", s.handleEnd)
	return mux
}

func (s *ServerMock) authorized(r *http.Request) bool {
	return r.Header.Get(headerAPIKey) == s.apiKey
}

func (s *ServerMock) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		s.rejected.Inc()
		http.Error(w, "invalid api key", http.StatusUnauthorized)
		return
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = true
	s.mu.Unlock()
	s.requests.WithLabelValues("start").Inc()
	if _, err := w.Write([]byte(id)); err != nil {
		s.log.Errorf("write session id: %v", err)
	}
}

func (s *ServerMock) handlePlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) || !s.sessionValid(r) {
		s.rejected.Inc()
		http.Error(w, "invalid session", http.StatusUnauthorized)
		return
	}
	var req RoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.rejected.Inc()
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.requests.WithLabelValues("play").Inc()
	resp := RoundResponse{
		Demand:    s.schedule[req.Day],
		DeltaKPIs: kpisFor(req, false),
		TotalKPIs: kpisFor(req, true),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Errorf("encode round response: %v", err)
	}
}

func (s *ServerMock) handleEnd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) || !s.sessionValid(r) {
		s.rejected.Inc()
		http.Error(w, "invalid session", http.StatusUnauthorized)
		return
	}
	s.mu.Lock()
	delete(s.sessions, r.Header.Get(headerSessionID))
	s.mu.Unlock()
	s.requests.WithLabelValues("end").Inc()
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(`{"ack":true}`)); err != nil {
		s.log.Errorf("write ack: %v", err)
	}
}

func (s *ServerMock) sessionValid(r *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[r.Header.Get(headerSessionID)]
}

// OpenSessions returns the number of sessions not yet ended.
func (s *ServerMock) OpenSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// kpisFor fabricates stable KPI figures so callers exercise the decode path.
func kpisFor(req RoundRequest, cumulative bool) (k sim.KPIs) {
	k.Day = req.Day
	for _, m := range req.Movements {
		k.Cost += m.Amount * 0.05
		k.CO2 += m.Amount * 0.02
	}
	if cumulative {
		k.Cost *= float64(req.Day)
		k.CO2 *= float64(req.Day)
	}
	return k
}

// Addr returns the listening address once Start has been called.
func (s *ServerMock) Addr() string { return s.addr }

// Start runs the HTTP server until the context is canceled.
func (s *ServerMock) Start(ctx context.Context) error {
	mux := s.Routes()
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()
	s.srv = &http.Server{Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("shutdown server: %v", err)
		}
		cancel()
	}()
	s.log.Infof("round mock server listening on %s", s.addr)
	err = s.srv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
