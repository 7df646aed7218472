package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// Feed paths served by FeedServer.
const (
	MasterPath = "/data/master.json"
	LivePath   = "/exec"
)

// FeedResponse is one canned HTTP response.
type FeedResponse struct {
	Status int
	Body   string
}

// FeedServer serves the master and live feeds from memory and records
// every request's query string.
type FeedServer struct {
	srv *httptest.Server

	mu       sync.Mutex
	master   FeedResponse
	live     []FeedResponse
	requests map[string][]url.Values
	hold     chan struct{}
	held     chan struct{}
}

// NewFeedServer starts a server answering 200 "{}" on both feeds until
// configured otherwise. It is closed when the test ends.
func NewFeedServer(t testing.TB) *FeedServer {
	t.Helper()
	s := &FeedServer{
		master:   FeedResponse{Status: http.StatusOK, Body: "{}"},
		live:     []FeedResponse{{Status: http.StatusOK, Body: "{}"}},
		requests: make(map[string][]url.Values),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(MasterPath, s.serveMaster)
	mux.HandleFunc(LivePath, s.serveLive)
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

// MasterURL is the master feed endpoint.
func (s *FeedServer) MasterURL() string { return s.srv.URL + MasterPath }

// LiveURL is the live feed endpoint.
func (s *FeedServer) LiveURL() string { return s.srv.URL + LivePath }

// Client returns an http.Client wired to the server.
func (s *FeedServer) Client() *http.Client { return s.srv.Client() }

// SetMaster replaces the master response.
func (s *FeedServer) SetMaster(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.master = FeedResponse{Status: status, Body: body}
}

// SetLive replaces the live responses. Responses are served in order; the
// last one repeats.
func (s *FeedServer) SetLive(responses ...FeedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = append([]FeedResponse(nil), responses...)
}

// HoldLive makes the next live request block until release is called.
// The returned started channel is closed once that request has arrived.
func (s *FeedServer) HoldLive() (started <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hold = make(chan struct{})
	s.held = make(chan struct{})
	hold := s.hold
	var once sync.Once
	return s.held, func() { once.Do(func() { close(hold) }) }
}

// Requests returns the recorded query strings for path.
func (s *FeedServer) Requests(path string) []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.requests[path]...)
}

func (s *FeedServer) serveMaster(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests[MasterPath] = append(s.requests[MasterPath], r.URL.Query())
	resp := s.master
	s.mu.Unlock()
	write(w, resp)
}

func (s *FeedServer) serveLive(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests[LivePath] = append(s.requests[LivePath], r.URL.Query())
	resp := s.live[0]
	if len(s.live) > 1 {
		s.live = s.live[1:]
	}
	hold, held := s.hold, s.held
	s.hold, s.held = nil, nil
	s.mu.Unlock()

	if hold != nil {
		close(held)
		<-hold
	}
	write(w, resp)
}

func write(w http.ResponseWriter, resp FeedResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = w.Write([]byte(resp.Body))
}
