package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/flowviz/flowviz/pkg/config"
	"github.com/flowviz/flowviz/pkg/dsl"
	"github.com/flowviz/flowviz/pkg/errors"
	"github.com/flowviz/flowviz/pkg/layout"
	"github.com/flowviz/flowviz/pkg/observability"
	"github.com/flowviz/flowviz/pkg/sim"
)

// DefaultIdleTimeout is how long a session with no subscribers stays alive
// before the manager expires it.
const DefaultIdleTimeout = 2 * time.Minute

// session is one live simulation. The scheduler belongs exclusively to the
// ticker goroutine; handlers read the immutable fields and talk to the hub.
type session struct {
	id    string
	speed float64
	fps   int

	hub    *hub
	sched  *sim.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// sessionManager creates, looks up, and expires simulation sessions.
type sessionManager struct {
	limit       int
	fps         int
	travelMs    float64
	seed        uint64
	idleTimeout time.Duration
	logger      *log.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionManager(cfg *config.Config, logger *log.Logger) *sessionManager {
	return &sessionManager{
		limit:       cfg.Server.MaxSessions,
		fps:         cfg.Sim.FPS,
		travelMs:    cfg.Sim.TravelMs,
		seed:        cfg.Sim.Seed,
		idleTimeout: DefaultIdleTimeout,
		logger:      logger,
		sessions:    make(map[string]*session),
	}
}

// Create parses source, builds a simulation, and starts its ticker and
// broadcast goroutines. Zero speed and fps take the configured defaults.
// When the manager is already running its maximum the returned error is a
// *errors.SessionLimitError.
func (m *sessionManager) Create(source string, speed float64, fps int) (*session, error) {
	if fps <= 0 {
		fps = m.fps
	}
	if fps <= 0 {
		fps = 30
	}

	topo := dsl.Parse(source)
	lay := layout.Compute(topo, layout.Options{})

	simulator := sim.New(topo, lay)
	if m.travelMs > 0 {
		simulator.TravelMs = m.travelMs
	}
	sched := sim.NewScheduler(simulator, sim.NewSpawner(simulator, m.seed), nil)
	if speed > 0 {
		sched.SetSpeed(speed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:     uuid.NewString(),
		speed:  sched.Speed(),
		fps:    fps,
		sched:  sched,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.hub = newHub(s.id, m.logger)

	m.mu.Lock()
	if len(m.sessions) >= m.limit {
		m.mu.Unlock()
		cancel()
		return nil, &errors.SessionLimitError{Limit: m.limit}
	}
	m.sessions[s.id] = s
	m.mu.Unlock()

	go s.hub.run()
	go m.tickLoop(s)

	observability.Session().OnSessionStart(ctx, s.id)
	m.logger.Info("session started",
		"id", s.id,
		"nodes", topo.NodeCount(),
		"fps", fps,
		"speed", s.speed)
	return s, nil
}

// tickLoop drives one session at its frame rate until it is canceled or
// sits idle past the timeout. All cleanup happens here: the hub stops, the
// manager forgets the session, and the end hook fires.
func (m *sessionManager) tickLoop(s *session) {
	start := time.Now()
	ticks := 0
	defer func() {
		s.hub.stop()
		m.remove(s.id)
		observability.Session().OnSessionEnd(context.Background(), s.id, ticks, time.Since(start))
		m.logger.Info("session ended", "id", s.id, "ticks", ticks, "duration", time.Since(start))
		close(s.done)
	}()

	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	last := start
	idleSince := start
	for {
		select {
		case <-s.ctx.Done():
			return

		case now := <-ticker.C:
			frame := s.sched.Tick(now.Sub(last).Seconds() * 1000)
			last = now
			ticks++

			if data, err := json.Marshal(frame); err == nil {
				s.hub.publish(data)
			}

			if s.hub.count() > 0 {
				idleSince = now
			} else if now.Sub(idleSince) > m.idleTimeout {
				m.logger.Info("session idle, expiring", "id", s.id)
				return
			}
		}
	}
}

// Get looks up a live session.
func (m *sessionManager) Get(id string) (*session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete cancels a session and waits for its goroutines to finish.
func (m *sessionManager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	s.cancel()
	<-s.done
	return nil
}

// remove forgets a session that ended on its own.
func (m *sessionManager) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of live sessions.
func (m *sessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown cancels every session and waits for them all to finish.
func (m *sessionManager) Shutdown() {
	m.mu.Lock()
	all := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for _, s := range all {
		s.cancel()
		<-s.done
	}
}
