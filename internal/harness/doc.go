// Package harness runs guide scenarios against in-memory feeds.
//
// A scenario scripts the master and live feed responses, drives the guide
// through a sequence of steps (loads, refreshes and selection changes) and
// asserts on the resulting load/refresh trace and derived views. No
// network is involved: feeds are served by an http.RoundTripper, time is a
// fixed fake clock and flow ids are sequential, so runs are reproducible
// and suitable for golden snapshots.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario validates"
//	master:
//	  status: 200          # optional, defaults to 200
//	  body: '{"sessions": []}'
//	live:                  # served in order, the last one repeats
//	  - body: '{"notices": []}'
//	  - file: live-error.json
//	steps:
//	  - action: init
//	  - action: refresh
//	  - action: toggle_tag
//	    tag: go
//	  - action: filter
//	    filter: { venue: v1 }
//	assertions:
//	  - type: outcomes
//	    outcomes: [loaded, loaded, discarded]
//	  - type: view_equals
//	    view: speaker-names
//	    expect: [Taro]
//	  - type: view_count
//	    view: sessions
//	    count: 1
//	  - type: view_contains
//	    view: timeline
//	    expect: { time_range: "10:00" }
//
// Body files are resolved relative to the scenario file.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/refresh.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
