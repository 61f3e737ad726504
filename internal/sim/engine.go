// Package sim runs the single-threaded simulation core: it drains the
// network feed, reconciles remote poses, cycles the pursuit phase, grows the
// agent roster from the smell budget, moves agents, and detects captures.
// All game state mutation happens inside Step; network threads only enqueue.
package sim

import (
	"fmt"
	"log"
	"sync"
	"time"

	"city-chase/internal/config"
	"city-chase/internal/geom"
	"city-chase/internal/netsync"
	"city-chase/internal/pursuit"
)

// SmellReader supplies the externally derived smell aggregate. The engine
// only ever reads it; the economic ledger that produces it lives elsewhere.
type SmellReader func() float64

// AgentFactory constructs the host-side renderable for a newly spawned
// agent. The core positions agents but never builds their scene objects;
// the returned handle is opaque here and rides along on the agent.
type AgentFactory func(personality pursuit.Personality, instance int) interface{}

// PlayerView is the render-facing state of one player after a step.
type PlayerView struct {
	ID            string       `json:"id"`
	Position      geom.Vec3    `json:"position"`
	Facing        float64      `json:"facing"`
	Animation     string       `json:"animation"`
	Status        PlayerStatus `json:"status"`
	Local         bool         `json:"local"`
	Stale         bool         `json:"stale"`
	Snapped       bool         `json:"snapped"`
	BufferedSnaps int          `json:"bufferedSnaps"`
}

// AgentView is the render-facing state of one agent after a step.
type AgentView struct {
	ID              string    `json:"id"`
	Personality     string    `json:"personality"`
	Instance        int       `json:"instance"`
	Position        geom.Vec3 `json:"position"`
	Rotation        float64   `json:"rotation"`
	Target          geom.Vec3 `json:"target"`
	Speed           float64   `json:"speed"`
	CaptureEligible bool      `json:"captureEligible"`
}

// Stats is a point-in-time summary for the inspector and metrics.
type Stats struct {
	StepNum       uint64  `json:"stepNum"`
	SimTime       float64 `json:"simTime"`
	Phase         string  `json:"phase"`
	Smell         float64 `json:"smell"`
	Tier          string  `json:"tier"`
	TierIndex     int     `json:"tierIndex"`
	PlayerCount   int     `json:"playerCount"`
	AgentCount    int     `json:"agentCount"`
	StalePeers    int     `json:"stalePeers"`
	Captures      uint64  `json:"captures"`
	DroppedSnaps  uint64  `json:"droppedSnaps"`
	ClockOffset   float64 `json:"clockOffset"`
	ClockSampled  bool    `json:"clockSampled"`
	LastStepNanos int64   `json:"lastStepNanos"`
}

// inboundSnapshot pairs a wire snapshot with its local arrival time.
type inboundSnapshot struct {
	snap    netsync.Snapshot
	localAt float64
}

// playerEntry is the engine's bookkeeping for one registered player.
type playerEntry struct {
	id      string
	local   bool
	remote  *netsync.RemoteEntity // nil for the local player
	capture *CaptureState
	// Authored pose, used for the local player only.
	pos    geom.Vec3
	facing float64
	anim   string
}

// Engine is the simulation core. Step is single-threaded; the mutex only
// guards the handoff points (feed inbox, registration, views).
type Engine struct {
	mu  sync.RWMutex
	cfg config.AppConfig
	now func() float64 // local clock, seconds

	// Network sync
	clock *netsync.Clock
	inbox []inboundSnapshot

	// Players, in registration order. Order is the targeting tiebreak.
	players []*playerEntry
	byID    map[string]*playerEntry
	localID string

	// Pursuit
	phase    *pursuit.PhaseClock
	resolver *pursuit.Resolver
	agents   []*pursuit.Agent
	roster   pursuit.Roster
	budget   pursuit.Budget
	smell    SmellReader

	journal *Journal

	// Step loop
	running  bool
	stopped  bool // set by Stop; the engine is single-use
	ticker   *time.Ticker
	stopChan chan struct{}

	// Callbacks fired inside Step, after state settles.
	OnCapture func(agentID, playerID string)
	OnRespawn func(playerID string, coordinate geom.Vec3)

	// AgentFactory, when set, is invoked once per spawn to build the
	// host's renderable handle for the new agent.
	AgentFactory AgentFactory

	stepNum      uint64
	simTime      float64
	lastStepAt   float64
	started      bool
	lastPhase    pursuit.Phase
	captureCount uint64
	nextAgentSeq int
	lastStepDur  time.Duration
}

// NewEngine creates an engine with the given smell source. A nil reader
// pins the population at the bottom tier.
func NewEngine(cfg config.AppConfig, smell SmellReader) *Engine {
	start := time.Now()
	localNow := func() float64 {
		return time.Since(start).Seconds()
	}
	return newEngineWithClock(cfg, smell, localNow)
}

// newEngineWithClock allows tests to drive the local clock by hand.
func newEngineWithClock(cfg config.AppConfig, smell SmellReader, localNow func() float64) *Engine {
	if smell == nil {
		smell = func() float64 { return 0 }
	}
	return &Engine{
		cfg:      cfg,
		now:      localNow,
		clock:    netsync.NewClock(cfg.Sync.ClockWindowSize, localNow),
		byID:     make(map[string]*playerEntry),
		phase:    pursuit.NewPhaseClock(cfg.Pursuit),
		resolver: pursuit.NewResolver(cfg.Pursuit, cfg.World),
		smell:    smell,
		journal:  NewJournal(),
		stopChan: make(chan struct{}),
	}
}

// Start begins the step loop at the configured rate. An engine stopped
// with Stop cannot be restarted; create a fresh one.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running || e.stopped {
		if e.stopped {
			log.Println("⚠️ Simulation core already stopped, ignoring Start")
		}
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	if err := e.journal.Start(e.cfg.Server.JournalPath); err != nil {
		log.Printf("⚠️ Journal disabled: %v", err)
	}

	e.ticker = time.NewTicker(e.cfg.Server.StepInterval())

	go func() {
		for {
			select {
			case <-e.ticker.C:
				e.Step()
			case <-e.stopChan:
				return
			}
		}
	}()

	log.Printf("🎮 Simulation core started at %d steps/s", e.cfg.Server.StepRate)
}

// Stop halts the step loop and flushes the journal.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.stopped = true
	if e.ticker != nil {
		e.ticker.Stop()
	}
	close(e.stopChan)
	e.mu.Unlock()

	e.journal.Stop()
	log.Println("🛑 Simulation core stopped")
}

// RegisterPlayer adds a player to the match. Remote players get a snapshot
// reconciler; the local player is authored directly via SetLocalPose.
func (e *Engine) RegisterPlayer(id string, local bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.byID[id]; ok {
		return fmt.Errorf("player %s already registered", id)
	}
	entry := &playerEntry{
		id:      id,
		local:   local,
		capture: NewCaptureState(e.cfg.Capture),
		anim:    "idle",
	}
	if local {
		if e.localID != "" {
			return fmt.Errorf("local player already set to %s", e.localID)
		}
		e.localID = id
	} else {
		entry.remote = netsync.NewRemoteEntity(id, e.cfg.Sync)
	}
	e.players = append(e.players, entry)
	e.byID[id] = entry

	e.journal.EmitSimple(EventTypePlayerJoin, e.stepNum, id, nil)
	log.Printf("✅ Player %s joined (local=%v)", id, local)
	return nil
}

// RemovePlayer drops a player from the match.
func (e *Engine) RemovePlayer(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.byID[id]
	if !ok {
		return
	}
	delete(e.byID, id)
	for i, p := range e.players {
		if p == entry {
			e.players = append(e.players[:i], e.players[i+1:]...)
			break
		}
	}
	if entry.local {
		e.localID = ""
	}
	e.journal.EmitSimple(EventTypePlayerLeave, e.stepNum, id, nil)
	log.Printf("👋 Player %s left", id)
}

// SetLocalPose authors the local player's pose for this step.
func (e *Engine) SetLocalPose(pos geom.Vec3, facing float64, anim string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.byID[e.localID]
	if !ok {
		return
	}
	entry.pos = pos
	entry.facing = facing
	entry.anim = anim
}

// IngestSnapshot enqueues a wire snapshot from the network thread. The
// snapshot is applied at the start of the next step.
func (e *Engine) IngestSnapshot(snap netsync.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inbox = append(e.inbox, inboundSnapshot{snap: snap, localAt: e.now()})
	// Every stamped snapshot doubles as a clock sample.
	e.clock.Sample(snap.ServerTime, e.now())
}

// Step runs one simulation step: drain feed, reconcile, phase, budget,
// resolve, move, capture. Safe to call from the ticker or directly in tests.
func (e *Engine) Step() {
	begin := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	dt := now - e.lastStepAt
	if !e.started {
		dt = 0
		e.started = true
	}
	e.lastStepAt = now
	e.simTime = now
	e.stepNum++

	e.drainInboxLocked()
	e.reconcileLocked()
	phase := e.phase.Update(now)
	if phase != e.lastPhase {
		e.journal.EmitSimple(EventTypePhaseChange, e.stepNum, "", PhaseChangePayload{
			Phase:     phase.String(),
			EnteredAt: e.phase.EnteredAt(),
		})
		log.Printf("🔁 Phase %s → %s", e.lastPhase, phase)
		e.lastPhase = phase
	}
	e.budgetLocked(now)
	players := e.playerStatesLocked(now)
	e.resolveAndMoveLocked(phase, players, dt)
	if phase == pursuit.PhaseChase {
		e.detectCapturesLocked(players, now)
	}
	e.expireCapturesLocked(now)

	e.lastStepDur = time.Since(begin)
	e.journal.EmitSimple(EventTypeStep, e.stepNum, "", StepPayload{
		SimTime:     now,
		PlayerCount: len(e.players),
		AgentCount:  len(e.agents),
		DeltaTimeNs: int64(dt * float64(time.Second)),
	})
}

// drainInboxLocked applies queued snapshots to their reconcilers.
func (e *Engine) drainInboxLocked() {
	for _, in := range e.inbox {
		entry, ok := e.byID[in.snap.EntityID]
		if !ok || entry.remote == nil {
			continue
		}
		entry.remote.Ingest(in.snap, in.localAt)
	}
	e.inbox = e.inbox[:0]
}

// reconcileLocked computes render poses for remote players at the delayed
// render instant.
func (e *Engine) reconcileLocked() {
	renderAt := e.clock.EstimatedServerNow() - e.cfg.Sync.InterpolationDelay
	for _, p := range e.players {
		if p.remote == nil {
			continue
		}
		pose, ok := p.remote.Render(renderAt)
		if !ok {
			continue
		}
		p.pos = pose.Position
		p.facing = pose.Rotation
		p.anim = pose.Animation
	}
}

// budgetLocked reads the smell aggregate and grows the roster when the tier
// demands it. The roster never shrinks within a match.
func (e *Engine) budgetLocked(now float64) {
	prev := e.budget
	e.budget = pursuit.BudgetFor(e.smell())

	if e.budget.TierIndex != prev.TierIndex {
		e.journal.EmitSimple(EventTypeTierChange, e.stepNum, "", TierChangePayload{
			Smell:    e.budget.Smell,
			Tier:     e.budget.Tier.Name,
			PrevTier: prev.Tier.Name,
		})
		log.Printf("📊 Smell tier %s → %s (%.1f)", prev.Tier.Name, e.budget.Tier.Name, e.budget.Smell)
	}

	delta := e.budget.RosterDelta(e.roster)
	if delta.Total() == 0 {
		return
	}
	for _, p := range pursuit.AllPersonalities() {
		for n := 0; n < delta.Count(p); n++ {
			e.spawnAgentLocked(p, now)
		}
	}
}

// spawnAgentLocked creates one agent at its personality's home corner. The
// first spawn starts the phase clock.
func (e *Engine) spawnAgentLocked(p pursuit.Personality, now float64) {
	instance := e.roster.Count(p)
	spawn := e.resolver.Corner(pursuit.HomeCorner(p) + instance)
	e.nextAgentSeq++
	agent := pursuit.NewAgent(fmt.Sprintf("agent-%d", e.nextAgentSeq), p, instance, spawn)
	if e.AgentFactory != nil {
		agent.Handle = e.AgentFactory(p, instance)
	}

	e.agents = append(e.agents, agent)
	e.roster[p]++

	if !e.phase.Started() {
		e.phase.Start(now)
	}

	e.journal.EmitSimple(EventTypeAgentSpawn, e.stepNum, agent.ID, AgentSpawnPayload{
		AgentID:     agent.ID,
		Personality: p.String(),
		Instance:    instance,
		SpawnX:      spawn.X,
		SpawnZ:      spawn.Z,
		Tier:        e.budget.Tier.Name,
	})
	log.Printf("🐺 Agent %s spawned (%s #%d, tier %s)", agent.ID, p, instance, e.budget.Tier.Name)
}

// playerStatesLocked builds the resolver's view of all players, skipping
// remote peers with no pose yet.
func (e *Engine) playerStatesLocked(now float64) []pursuit.PlayerState {
	states := make([]pursuit.PlayerState, 0, len(e.players))
	for _, p := range e.players {
		if p.remote != nil {
			if _, ok := p.remote.Pose(); !ok {
				continue
			}
			if p.remote.Stale(now) {
				continue
			}
		}
		states = append(states, pursuit.PlayerState{
			ID:            p.id,
			Position:      p.pos,
			Facing:        p.facing,
			Incapacitated: p.capture.Incapacitated(),
		})
	}
	return states
}

// resolveAndMoveLocked runs the targeting resolver for every agent, then
// advances them. Resolution happens for all agents before any movement so
// the pincer mirrors this step's chaser position, not a half-moved one.
func (e *Engine) resolveAndMoveLocked(phase pursuit.Phase, players []pursuit.PlayerState, dt float64) {
	for _, a := range e.agents {
		a.Apply(e.resolver.Resolve(a, phase, players, e.agents, e.budget.SpeedBonus))
	}
	for _, a := range e.agents {
		a.Step(dt, e.cfg.Pursuit)
	}
}

// detectCapturesLocked checks eligible agents against active players.
func (e *Engine) detectCapturesLocked(players []pursuit.PlayerState, now float64) {
	for _, a := range e.agents {
		if !a.CaptureEligible {
			continue
		}
		caught, ok := a.CaptureCheck(players, e.cfg.Capture.Radius)
		if !ok {
			continue
		}
		entry := e.byID[caught.ID]
		if entry == nil || !entry.capture.Capture(a.ID, entry.pos, now) {
			continue
		}
		e.captureCount++

		e.journal.EmitSimple(EventTypeCapture, e.stepNum, caught.ID, CapturePayload{
			AgentID:     a.ID,
			PlayerID:    caught.ID,
			Personality: a.Personality.String(),
			X:           a.Position.X,
			Z:           a.Position.Z,
		})
		log.Printf("🚨 Player %s captured by %s", caught.ID, a.ID)
		if e.OnCapture != nil {
			e.OnCapture(a.ID, caught.ID)
		}

		// Refresh the view so a second agent cannot capture the same
		// player this step.
		for i := range players {
			if players[i].ID == caught.ID {
				players[i].Incapacitated = true
			}
		}
	}
}

// expireCapturesLocked times out incapacitations. The respawn carries the
// home coordinate snapshotted at capture so the host knows where to place
// the player.
func (e *Engine) expireCapturesLocked(now float64) {
	for _, p := range e.players {
		if !p.capture.Update(now) {
			continue
		}
		home := p.capture.HomeCoordinate()
		e.journal.EmitSimple(EventTypeRespawn, e.stepNum, p.id, RespawnPayload{
			PlayerID:   p.id,
			Coordinate: home,
			DownFor:    e.cfg.Capture.Timeout,
		})
		log.Printf("💫 Player %s back up at (%.1f, %.1f)", p.id, home.X, home.Z)
		if e.OnRespawn != nil {
			e.OnRespawn(p.id, home)
		}
	}
}

// Players returns the render-facing player views.
func (e *Engine) Players() []PlayerView {
	e.mu.RLock()
	defer e.mu.RUnlock()

	now := e.now()
	views := make([]PlayerView, 0, len(e.players))
	for _, p := range e.players {
		v := PlayerView{
			ID:        p.id,
			Position:  p.pos,
			Facing:    p.facing,
			Animation: p.anim,
			Status:    p.capture.Status(),
			Local:     p.local,
		}
		if p.remote != nil {
			v.Stale = p.remote.Stale(now)
			v.BufferedSnaps = p.remote.BufferLen()
			if pose, ok := p.remote.Pose(); ok {
				v.Snapped = pose.Snapped
			}
		}
		views = append(views, v)
	}
	return views
}

// Agents returns the render-facing agent views.
func (e *Engine) Agents() []AgentView {
	e.mu.RLock()
	defer e.mu.RUnlock()

	views := make([]AgentView, 0, len(e.agents))
	for _, a := range e.agents {
		views = append(views, AgentView{
			ID:              a.ID,
			Personality:     a.Personality.String(),
			Instance:        a.Instance,
			Position:        a.Position,
			Rotation:        a.Rotation,
			Target:          a.Target,
			Speed:           a.Speed,
			CaptureEligible: a.CaptureEligible,
		})
	}
	return views
}

// Roster returns the current per-personality agent counts.
func (e *Engine) Roster() pursuit.Roster {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roster
}

// Budget returns the current smell budget.
func (e *Engine) Budget() pursuit.Budget {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.budget
}

// Phase returns the current pursuit phase.
func (e *Engine) Phase() pursuit.Phase {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.phase.Phase()
}

// Journal exposes the event journal for the inspector.
func (e *Engine) Journal() *Journal {
	return e.journal
}

// GetStats returns a point-in-time summary for metrics and the inspector.
func (e *Engine) GetStats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	now := e.now()
	stale := 0
	var dropped uint64
	for _, p := range e.players {
		if p.remote == nil {
			continue
		}
		if p.remote.Stale(now) {
			stale++
		}
		dropped += p.remote.DroppedCount()
	}
	offset, sampled := e.clock.Offset()

	return Stats{
		StepNum:       e.stepNum,
		SimTime:       e.simTime,
		Phase:         e.phase.Phase().String(),
		Smell:         e.budget.Smell,
		Tier:          e.budget.Tier.Name,
		TierIndex:     e.budget.TierIndex,
		PlayerCount:   len(e.players),
		AgentCount:    len(e.agents),
		StalePeers:    stale,
		Captures:      e.captureCount,
		DroppedSnaps:  dropped,
		ClockOffset:   offset,
		ClockSampled:  sampled,
		LastStepNanos: e.lastStepDur.Nanoseconds(),
	}
}

// Reset clears the match: agents despawn, the phase clock stops, captures
// lift. Registered players stay.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.agents = nil
	e.roster = pursuit.Roster{}
	e.budget = pursuit.Budget{}
	e.phase.Reset()
	e.lastPhase = pursuit.PhaseScatter
	e.captureCount = 0
	for _, p := range e.players {
		p.capture.Reset()
	}
	log.Println("🔄 Match reset")
}
