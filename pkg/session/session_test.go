package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cognisync/go-cognisync/pkg/score"
	"github.com/cognisync/go-cognisync/pkg/signal"
)

func entryWithScores(eng, stress, conf float64) Entry {
	return Entry{
		Observation: signal.Normalize(signal.RawSignals{}, time.Now()),
		Snapshot:    score.Snapshot{Engagement: eng, Stress: stress, Confidence: conf},
	}
}

func TestWindowsNeverExceedCapacity(t *testing.T) {
	m := NewManager(Config{AnalyticWindow: 5, DisplayWindow: 30})
	s := m.Get("cap-test")

	for i := 0; i < 100; i++ {
		s.Update(func(st *State) {
			st.Append(entryWithScores(float64(i), 0, 0))
		})
	}

	s.Update(func(st *State) {
		if len(st.Analytic) != 5 {
			t.Errorf("Analytic window should hold 5, got %d", len(st.Analytic))
		}
		if len(st.Display) != 30 {
			t.Errorf("Display window should hold 30, got %d", len(st.Display))
		}
		// Oldest evicted first: analytic window holds entries 95..99.
		if st.Analytic[0].Snapshot.Engagement != 95 {
			t.Errorf("Expected oldest analytic engagement 95, got %.0f",
				st.Analytic[0].Snapshot.Engagement)
		}
		if st.Analytic[4].Snapshot.Engagement != 99 {
			t.Errorf("Expected newest analytic engagement 99, got %.0f",
				st.Analytic[4].Snapshot.Engagement)
		}
	})
}

func TestTrendEmptyWindow(t *testing.T) {
	m := NewManager(DefaultConfig())
	s := m.Get("trend-empty")

	s.Update(func(st *State) {
		tr := st.Trend(score.Snapshot{Engagement: 50, Stress: 50, Confidence: 50})
		if tr.Engagement != 0 || tr.Stress != 0 || tr.Confidence != 0 {
			t.Errorf("Empty window should yield zero deltas, got %+v", tr)
		}
	})
}

func TestTrendAgainstWindowMean(t *testing.T) {
	m := NewManager(DefaultConfig())
	s := m.Get("trend-mean")

	s.Update(func(st *State) {
		st.Append(entryWithScores(40, 20, 50))
		st.Append(entryWithScores(60, 40, 50))

		tr := st.Trend(score.Snapshot{Engagement: 80, Stress: 10, Confidence: 50})
		if tr.Engagement != 30 {
			t.Errorf("Expected engagement delta +30, got %.1f", tr.Engagement)
		}
		if tr.Stress != -20 {
			t.Errorf("Expected stress delta -20, got %.1f", tr.Stress)
		}
		if tr.Confidence != 0 {
			t.Errorf("Expected confidence delta 0, got %.1f", tr.Confidence)
		}
	})
}

func TestRecentEmotionsAndSnapshotAgo(t *testing.T) {
	m := NewManager(DefaultConfig())
	s := m.Get("recent")

	emotions := []string{"neutral", "happy", "angry"}
	s.Update(func(st *State) {
		for i, em := range emotions {
			e := Entry{
				Observation: signal.Normalize(signal.RawSignals{Emotion: em}, time.Now()),
				Snapshot:    score.Snapshot{Engagement: float64(i)},
			}
			st.Append(e)
		}

		got := st.RecentEmotions(2)
		if len(got) != 2 || got[0] != signal.EmotionHappy || got[1] != signal.EmotionAngry {
			t.Errorf("RecentEmotions(2) = %v", got)
		}

		back := st.SnapshotAgo(2)
		if back == nil || back.Engagement != 0 {
			t.Errorf("SnapshotAgo(2) should reach the oldest entry, got %+v", back)
		}
		if st.SnapshotAgo(3) != nil {
			t.Error("SnapshotAgo beyond window should be nil")
		}
	})
}

func TestManagerGetCreatesOnce(t *testing.T) {
	m := NewManager(DefaultConfig())

	a := m.Get("same")
	b := m.Get("same")
	if a != b {
		t.Error("Get should return the same session for the same key")
	}
	if m.Len() != 1 {
		t.Errorf("Expected 1 session, got %d", m.Len())
	}

	if _, ok := m.Peek("other"); ok {
		t.Error("Peek must not create sessions")
	}
}

func TestManagerReset(t *testing.T) {
	m := NewManager(DefaultConfig())
	s := m.Get("reset-me")

	s.Update(func(st *State) {
		st.Append(entryWithScores(10, 10, 10))
		st.Calls = 7
		st.Cooldowns["stress_spike"] = 4
	})

	m.Reset("reset-me")

	s.Update(func(st *State) {
		if len(st.Analytic) != 0 || len(st.Display) != 0 {
			t.Error("Reset should clear history")
		}
		if st.Calls != 0 || len(st.Cooldowns) != 0 {
			t.Error("Reset should clear call count and cooldowns")
		}
	})
}

func TestManagerEvict(t *testing.T) {
	m := NewManager(DefaultConfig())
	stale := m.Get("stale")
	m.Get("fresh")

	stale.mu.Lock()
	stale.lastSeen = time.Now().Add(-time.Hour)
	stale.mu.Unlock()

	if removed := m.Evict(10 * time.Minute); removed != 1 {
		t.Errorf("Expected 1 eviction, got %d", removed)
	}
	if _, ok := m.Peek("stale"); ok {
		t.Error("Stale session should be gone")
	}
	if _, ok := m.Peek("fresh"); !ok {
		t.Error("Fresh session should remain")
	}
}

func TestConcurrentSessionsDoNotInterleave(t *testing.T) {
	m := NewManager(Config{AnalyticWindow: 5, DisplayWindow: 200})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			key := fmt.Sprintf("session-%d", w%4)
			s := m.Get(key)
			for i := 0; i < 50; i++ {
				s.Update(func(st *State) {
					st.Calls++
					st.Append(entryWithScores(float64(st.Calls), 0, 0))
				})
			}
		}(w)
	}
	wg.Wait()

	if m.Len() != 4 {
		t.Fatalf("Expected 4 sessions, got %d", m.Len())
	}
	for i := 0; i < 4; i++ {
		s := m.Get(fmt.Sprintf("session-%d", i))
		s.Update(func(st *State) {
			if st.Calls != 100 {
				t.Errorf("session-%d: expected 100 calls, got %d", i, st.Calls)
			}
			// Call counter and history must agree: newest entry carries
			// the final counter value.
			newest := st.Analytic[len(st.Analytic)-1]
			if newest.Snapshot.Engagement != 100 {
				t.Errorf("session-%d: interleaved append, newest=%f", i, newest.Snapshot.Engagement)
			}
		})
	}
}
