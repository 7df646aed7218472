package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/OkinawaYT/Michishirube2026/internal/guide"
	"github.com/OkinawaYT/Michishirube2026/internal/testutil"
)

const conferenceMaster = `{
  "sessions": [
    {"id": "s1", "title": "Opening", "time": "10:00", "venue_id": "v1", "speaker_ids": ["p1"], "hashtags": ["go", "cloud"]},
    {"id": "s2", "title": "Edge AI", "time": "11:00", "venue_id": "v2", "speaker_ids": ["p2"], "hashtags": ["ai"]}
  ],
  "speakers": [
    {"id": "p1", "name": "Taro", "kana": "たろう", "affiliation": "Uni"},
    {"id": "p2", "name": "Hanako", "kana": "はなこ", "affiliation": "Lab"}
  ],
  "venues": [{"id": "v1", "name": "Hall A"}, {"id": "v2", "name": "Hall B"}],
  "timeline_structure": [
    {"time_range": "10:00", "is_parallel": false},
    {"time_range": "11:00", "is_parallel": true}
  ]
}`

var fixedStart = time.Date(2026, 10, 24, 9, 0, 0, 0, time.UTC)

// feedEnv starts a feed server serving conferenceMaster and points the
// configuration at it through the environment.
func feedEnv(t *testing.T) *testutil.FeedServer {
	t.Helper()
	srv := testutil.NewFeedServer(t)
	srv.SetMaster(200, conferenceMaster)
	srv.SetLive(testutil.FeedResponse{Status: 200, Body: `{"notices": [{"title": "Welcome"}], "parking": [], "cacheAge": 30}`})

	t.Setenv("MICHISHIRUBE_CONFIG", "")
	t.Setenv("MICHISHIRUBE_MASTER_URL", srv.MasterURL())
	t.Setenv("MICHISHIRUBE_LIVE_URL", srv.LiveURL())
	return srv
}

// deterministic returns guide options for a fixed clock and flow ids.
func deterministic(clk *testutil.FakeClock) []guide.Option {
	return []guide.Option{
		guide.WithClock(clk),
		guide.WithFlowIDs(testutil.NewSequentialFlowIDs("")),
	}
}

func execute(cmd *cobra.Command, args ...string) (stdout, stderr *bytes.Buffer, err error) {
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err = cmd.Execute()
	return stdout, stderr, err
}
