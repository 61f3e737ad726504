package main

import (
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"city-chase/internal/api"
	"city-chase/internal/config"
	"city-chase/internal/geom"
	"city-chase/internal/minimap"
	"city-chase/internal/netsync"
	"city-chase/internal/sim"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🏙️ ================================")
	log.Println("🏙️  CITY CHASE - SIMULATION CORE")
	log.Println("🏙️ ================================")

	appConfig := config.Load()

	log.Printf("🎮 Config: %d steps/s, world %.0fx%.0f, interp delay %.0fms",
		appConfig.Server.StepRate, appConfig.World.Width, appConfig.World.Depth,
		appConfig.Sync.InterpolationDelay*1000)

	// Smell source. The economic ledger that produces the real aggregate
	// lives in another service; standalone runs use a configurable ramp so
	// every escalation tier is reachable.
	smellRate := getEnvFloat("SMELL_RAMP_PER_SEC", 0.5)
	started := time.Now()
	smell := func() float64 {
		return time.Since(started).Seconds() * smellRate
	}

	engine := sim.NewEngine(appConfig, smell)

	// Debug server (pprof + prometheus)
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	// Inspector server with minimap
	renderer := minimap.NewRenderer(appConfig.World)
	server := api.NewServer(engine, renderer)

	engine.OnCapture = func(agentID, playerID string) {
		api.RecordCapture()
		server.Hub().Broadcast("match:capture", map[string]string{
			"agentId":  agentID,
			"playerId": playerID,
		})
	}
	engine.OnRespawn = func(playerID string, coordinate geom.Vec3) {
		server.Hub().Broadcast("match:respawn", map[string]interface{}{
			"playerId":   playerID,
			"coordinate": coordinate,
		})
	}

	engine.Start()

	// Metrics sync loop
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			s := engine.GetStats()
			api.RecordStep(s.LastStepNanos)
			api.UpdateSimGauges(s.PlayerCount, s.AgentCount, s.TierIndex, s.StalePeers, s.DroppedSnaps, s.ClockOffset)
		}
	}()

	// Demo feed: a local player circling downtown plus one synthetic
	// remote peer, so a standalone run exercises the whole pipeline.
	if os.Getenv("DEMO_FEED") != "false" {
		startDemoFeed(engine, appConfig)
	}

	go func() {
		if err := server.Start(appConfig.Server.InspectorAddr); err != nil {
			log.Fatalf("Failed to start inspector server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	server.Stop()
	engine.Stop()
	log.Println("👋 Goodbye!")
}

// startDemoFeed registers two players and drives them: the local one is
// authored directly, the remote one arrives as timestamped snapshots the
// way a relay would deliver them.
func startDemoFeed(engine *sim.Engine, cfg config.AppConfig) {
	if err := engine.RegisterPlayer("runner-local", true); err != nil {
		log.Printf("⚠️ Demo feed: %v", err)
		return
	}
	if err := engine.RegisterPlayer("runner-remote", false); err != nil {
		log.Printf("⚠️ Demo feed: %v", err)
		return
	}

	cx, cz := cfg.World.Width/2, cfg.World.Depth/2
	start := time.Now()

	// Local player at the step rate
	go func() {
		ticker := time.NewTicker(cfg.Server.StepInterval())
		defer ticker.Stop()
		for range ticker.C {
			t := time.Since(start).Seconds()
			engine.SetLocalPose(geom.Vec3{
				X: cx + 40*math.Cos(t*0.4),
				Z: cz + 40*math.Sin(t*0.4),
			}, t*0.4+math.Pi/2, "run")
		}
	}()

	// Remote peer at a relay-ish 10 Hz, with a fixed fake clock skew
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		const skew = 1234.5
		for range ticker.C {
			t := time.Since(start).Seconds()
			engine.IngestSnapshot(netsync.Snapshot{
				EntityID: "runner-remote",
				Position: geom.Vec3{
					X: cx + 60*math.Cos(-t*0.3),
					Z: cz + 60*math.Sin(-t*0.3),
				},
				Rotation:   -t*0.3 - math.Pi/2,
				Animation:  "run",
				ServerTime: t + skew,
			})
		}
	}()

	log.Println("🎭 Demo feed running (set DEMO_FEED=false to disable)")
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
