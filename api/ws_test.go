package api_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"forksim_go/api"
	"forksim_go/simulation"
)

func TestStateFeedPushesSnapshots(t *testing.T) {
	sim, err := simulation.New()
	if err != nil {
		t.Fatalf("simulation.New: %v", err)
	}
	s := api.NewServer(sim, nil, 0)
	s.SetupRoutes()

	ts := httptest.NewServer(s.Router)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/state"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Connecting yields the current snapshot immediately.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snap simulation.Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if len(snap.CanonicalChain.Blocks) != 2 {
		t.Errorf("initial canonical height = %d, want 2", len(snap.CanonicalChain.Blocks))
	}

	// A mutation pushes a fresh snapshot.
	sim.MineCanonicalBlock("")
	s.Feed.Publish(sim.Snapshot())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read pushed snapshot: %v", err)
	}
	if len(snap.CanonicalChain.Blocks) != 3 {
		t.Errorf("pushed canonical height = %d, want 3", len(snap.CanonicalChain.Blocks))
	}
}

func TestConcurrentPublishWhileConnecting(t *testing.T) {
	sim, err := simulation.New()
	if err != nil {
		t.Fatalf("simulation.New: %v", err)
	}
	s := api.NewServer(sim, nil, 0)
	s.SetupRoutes()

	ts := httptest.NewServer(s.Router)
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/state"

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			s.Feed.Publish(sim.Snapshot())
		}
	}()

	// Each client must read a clean initial snapshot while the feed is
	// publishing to already-registered connections.
	for i := 0; i < 5; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var snap simulation.Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			t.Fatalf("read initial snapshot %d: %v", i, err)
		}
		if len(snap.CanonicalChain.Blocks) != 2 {
			t.Errorf("client %d: canonical height = %d, want 2", i, len(snap.CanonicalChain.Blocks))
		}
		conn.Close()
	}
	<-done
}
