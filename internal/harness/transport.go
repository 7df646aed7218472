package harness

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/OkinawaYT/Michishirube2026/internal/testutil"
)

// feedHost is the fake origin both feeds are served from.
const feedHost = "https://feeds.test"

// feedTransport answers feed requests from the scenario's fixtures
// without touching the network.
type feedTransport struct {
	mu     sync.Mutex
	master FeedFixture
	live   []FeedFixture
	served int
}

func newFeedTransport(s *Scenario) *feedTransport {
	live := s.Live
	if len(live) == 0 {
		live = []FeedFixture{{Body: "{}"}}
	}
	return &feedTransport{master: s.Master, live: live}
}

func (t *feedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var fixture FeedFixture
	switch req.URL.Path {
	case testutil.MasterPath:
		fixture = t.master
	case testutil.LivePath:
		fixture = t.nextLive()
	default:
		fixture = FeedFixture{Status: http.StatusNotFound, Body: "not found"}
	}

	status := fixture.Status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode:    status,
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        http.Header{"Content-Type": []string{"application/json"}},
		Body:          io.NopCloser(strings.NewReader(fixture.Body)),
		ContentLength: int64(len(fixture.Body)),
		Request:       req,
	}, nil
}

func (t *feedTransport) nextLive() FeedFixture {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := min(t.served, len(t.live)-1)
	t.served++
	return t.live[i]
}
