// cognisync: behavioral signal fusion and advisory service
// Accepts per-frame feature observations and returns scores, alerts, and
// tactical advice over HTTP plus a websocket live feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cognisync/go-cognisync/internal/config"
	"github.com/cognisync/go-cognisync/internal/log"
	"github.com/cognisync/go-cognisync/pkg/advisor"
	"github.com/cognisync/go-cognisync/pkg/alert"
	"github.com/cognisync/go-cognisync/pkg/hub"
	"github.com/cognisync/go-cognisync/pkg/inference"
	"github.com/cognisync/go-cognisync/pkg/pipeline"
	"github.com/cognisync/go-cognisync/pkg/score"
	"github.com/cognisync/go-cognisync/pkg/session"
	"github.com/cognisync/go-cognisync/pkg/store"
	"github.com/cognisync/go-cognisync/pkg/web"
)

var (
	port           = flag.String("port", "", "HTTP listen port (default COGNISYNC_PORT or 8000)")
	debug          = flag.Bool("debug", false, "Enable debug logging")
	analyticWindow = flag.Int("analytic-window", 0, "Trend window size in calls")
	displayWindow  = flag.Int("display-window", 0, "History window size in calls")
	alertDB        = flag.String("alert-db", "", "SQLite event log path (default COGNISYNC_ALERT_DB, empty disables)")
	noLLM          = flag.Bool("no-llm", false, "Disable external advice generation, fallback engine only")
	tacticRotation = flag.Int("tactic-rotation", 0, "Rotate fallback tactic variants after N repeats (0 disables)")
	sessionTTL     = flag.Duration("session-ttl", 30*time.Minute, "Evict sessions idle longer than this")
)

func main() {
	config.LoadDotenv()
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	log.Init(level)

	if *port == "" {
		*port = config.Port()
	}
	if *alertDB == "" {
		*alertDB = config.AlertLogPath()
	}
	if *analyticWindow <= 0 {
		*analyticWindow = config.IntEnv("COGNISYNC_ANALYTIC_WINDOW", session.DefaultAnalyticWindow)
	}
	if *displayWindow <= 0 {
		*displayWindow = config.IntEnv("COGNISYNC_DISPLAY_WINDOW", session.DefaultDisplayWindow)
	}

	fmt.Println()
	fmt.Println("🧠 CogniSync v" + web.Version)
	fmt.Println("   Behavioral signal fusion & advisory service")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider := buildProvider()
	if provider != nil {
		defer provider.Close()
	}

	var eventLog *store.Store
	if *alertDB != "" {
		var err error
		eventLog, err = store.Open(*alertDB)
		if err != nil {
			log.Error("open event log failed", "path", *alertDB, "error", err)
			os.Exit(1)
		}
		defer eventLog.Close()
		log.Info("event log enabled", "path", *alertDB)
	}

	live := hub.New("live")
	go live.Run(ctx)

	sessions := session.NewManager(session.Config{
		AnalyticWindow: *analyticWindow,
		DisplayWindow:  *displayWindow,
	})
	go evictLoop(ctx, sessions, *sessionTTL)

	opts := []pipeline.Option{pipeline.WithHub(live)}
	if eventLog != nil {
		opts = append(opts, pipeline.WithStore(eventLog))
	}
	pipe := pipeline.New(
		sessions,
		score.New(score.DefaultConfig()),
		alert.New(alert.DefaultConfig()),
		advisor.New(provider, advisor.Config{
			Timeout:       advisor.DefaultConfig().Timeout,
			RotationEvery: *tacticRotation,
		}),
		opts...,
	)

	server := web.NewServer(web.Config{
		Port:     *port,
		Pipeline: pipe,
		Sessions: sessions,
		Store:    eventLog,
		Live:     live,
	})

	go func() {
		log.Info("starting server",
			"port", *port,
			"analyze", fmt.Sprintf("http://localhost:%s/api/analyze", *port),
			"live", fmt.Sprintf("ws://localhost:%s/ws/live", *port),
		)
		if err := server.Listen(); err != nil {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	if err := server.Shutdown(); err != nil {
		log.Warn("shutdown error", "error", err)
	}
}

// buildProvider assembles the advice generator chain from the configured
// API keys. Gemini leads when both are present; nil means the fallback
// engine handles every call.
func buildProvider() inference.Provider {
	if *noLLM {
		log.Info("advice generation disabled, fallback engine only")
		return nil
	}

	var providers []inference.Provider
	if key := config.GeminiKey(); key != "" {
		gemini, err := inference.NewGemini(inference.WithAPIKey(key))
		if err != nil {
			log.Warn("gemini provider unavailable", "error", err)
		} else {
			providers = append(providers, gemini)
			log.Info("advice provider enabled", "provider", "gemini")
		}
	}
	if key := config.OpenAIKey(); key != "" {
		client, err := inference.NewClient(inference.WithAPIKey(key))
		if err != nil {
			log.Warn("openai provider unavailable", "error", err)
		} else {
			providers = append(providers, client)
			log.Info("advice provider enabled", "provider", "openai")
		}
	}

	switch len(providers) {
	case 0:
		log.Info("no advice provider configured, fallback engine only")
		return nil
	case 1:
		return providers[0]
	default:
		chain, err := inference.NewChain(providers...)
		if err != nil {
			return providers[0]
		}
		return chain
	}
}

// evictLoop sweeps idle sessions until ctx is cancelled.
func evictLoop(ctx context.Context, sessions *session.Manager, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Evict(ttl); n > 0 {
				log.Debug("evicted idle sessions", "count", n)
			}
		}
	}
}
