package game

import (
	"io"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/ninetynine/internal/deck"
	"github.com/lox/ninetynine/internal/randutil"
)

// Update is what observers receive after every state change: the public
// snapshot and the events the change produced. Private hands are only
// reachable one seat at a time through Hand and View.
type Update struct {
	Snapshot Snapshot
	Events   []GameEvent

	hands map[string][]deck.Card
}

// Hand returns seatID's private hand as of this update.
func (u Update) Hand(seatID string) []deck.Card {
	return u.hands[seatID]
}

// View returns the update as seen by seatID.
func (u Update) View(seatID string) PlayerView {
	return PlayerView{Snapshot: u.Snapshot, SeatID: seatID, Hand: u.Hand(seatID)}
}

// Observer receives updates. OnUpdate runs with the runner locked, so it must
// not call back into the runner; hand the update off instead.
//
// An update can open every seat's hand. An observer that forwards state to a
// seat must send it that seat's View (or Hand) and nothing else; the
// Snapshot alone is safe for anyone.
type Observer interface {
	OnUpdate(update Update)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(update Update)

// OnUpdate implements Observer
func (f ObserverFunc) OnUpdate(update Update) { f(update) }

// ThinkTimeFunc returns the range a bot of the given difficulty "thinks" for
// before playing.
type ThinkTimeFunc func(d Difficulty) (lo, hi time.Duration)

// DefaultThinkTime gives harder bots longer to think.
func DefaultThinkTime(d Difficulty) (time.Duration, time.Duration) {
	switch d {
	case Hard:
		return 2500 * time.Millisecond, 3500 * time.Millisecond
	case Normal:
		return 1800 * time.Millisecond, 2600 * time.Millisecond
	default:
		return 1200 * time.Millisecond, 1800 * time.Millisecond
	}
}

// DefaultPlayPause is how long a bot shows as "playing" before its card lands.
const DefaultPlayPause = 500 * time.Millisecond

// Runner serializes access to an Engine and drives bot seats. Every public
// method takes the runner's lock, so a play and the turn advance it causes
// are applied as one unit before the next intent is looked at.
type Runner struct {
	mu        sync.Mutex
	engine    *Engine
	recorder  *EventRecorder
	clock     quartz.Clock
	rng       *rand.Rand
	factory   AgentFactory
	agents    map[string]Agent
	thinkTime ThinkTimeFunc
	playPause time.Duration
	observers []Observer
	pending   *quartz.Timer
	stopped   bool
	logger    *log.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithClock sets the clock used to schedule bot turns.
func WithClock(clock quartz.Clock) RunnerOption {
	return func(r *Runner) {
		r.clock = clock
	}
}

// WithAgents sets the factory that builds bot agents.
func WithAgents(factory AgentFactory) RunnerOption {
	return func(r *Runner) {
		r.factory = factory
	}
}

// WithThinkTime overrides the bot think time ranges.
func WithThinkTime(fn ThinkTimeFunc) RunnerOption {
	return func(r *Runner) {
		r.thinkTime = fn
	}
}

// WithPlayPause sets the pause between a bot deciding and playing. Zero plays
// straight after thinking.
func WithPlayPause(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.playPause = d
	}
}

// WithRunnerRand sets the random source for think times.
func WithRunnerRand(rng *rand.Rand) RunnerOption {
	return func(r *Runner) {
		r.rng = rng
	}
}

// WithRunnerLogger sets the runner logger.
func WithRunnerLogger(logger *log.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner wraps engine. The runner owns the engine from here on; callers
// must not use it directly.
func NewRunner(engine *Engine, opts ...RunnerOption) *Runner {
	r := &Runner{
		engine:    engine,
		recorder:  &EventRecorder{},
		agents:    make(map[string]Agent),
		thinkTime: DefaultThinkTime,
		playPause: DefaultPlayPause,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.clock == nil {
		r.clock = quartz.NewReal()
	}
	if r.rng == nil {
		r.rng = randutil.NewEntropy()
	}
	if r.factory == nil {
		r.factory = func(Difficulty) Agent { return FirstCardAgent{} }
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	r.logger = r.logger.WithPrefix("runner")
	engine.Events().Subscribe(r.recorder)
	return r
}

// Subscribe registers an observer. It immediately receives the current state.
func (r *Runner) Subscribe(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
	o.OnUpdate(r.updateLocked(nil))
}

// AddSeat adds a seat in the lobby.
func (r *Runner) AddSeat(id, name string, bot bool, difficulty Difficulty) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.engine.AddSeat(id, name, bot, difficulty) {
		return false
	}
	r.notifyLocked()
	return true
}

// RemoveSeat drops a seat and hands the turn on if needed.
func (r *Runner) RemoveSeat(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.engine.RemoveSeat(id) {
		return false
	}
	delete(r.agents, id)
	r.scheduleLocked()
	r.notifyLocked()
	return true
}

// Start deals the first round.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.engine.StartGame(); err != nil {
		return err
	}
	r.scheduleLocked()
	r.notifyLocked()
	return nil
}

// Restart deals a fresh round for the same seats.
func (r *Runner) Restart() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.engine.RestartGame(); err != nil {
		return err
	}
	r.scheduleLocked()
	r.notifyLocked()
	return nil
}

// Play submits a play for seatID. Rejections are returned without notifying
// observers.
func (r *Runner) Play(seatID, cardID string, opts PlayOptions) (PlayResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, err := r.engine.PlayCard(seatID, cardID, opts)
	if err != nil {
		r.logger.Debug("Play rejected", "seat", seatID, "card", cardID, "reason", ReasonOf(err))
		return res, err
	}
	r.scheduleLocked()
	r.notifyLocked()
	return res, nil
}

// Snapshot returns the public state.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Snapshot()
}

// Hand returns a copy of seatID's hand.
func (r *Runner) Hand(seatID string) []deck.Card {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.Hand(seatID)
}

// ViewFor returns the state as seen by seatID.
func (r *Runner) ViewFor(seatID string) PlayerView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engine.ViewFor(seatID)
}

// Stop cancels any scheduled bot turn. Later state changes schedule nothing.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	r.cancelLocked()
}

func (r *Runner) cancelLocked() {
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
}

// scheduleLocked arranges for the seat to act to play after its think time,
// if it is a bot. Any earlier schedule is cancelled.
func (r *Runner) scheduleLocked() {
	r.cancelLocked()
	if r.stopped || r.engine.Status() != StatusPlaying {
		return
	}
	seat, ok := r.engine.CurrentSeat()
	if !ok || !seat.Bot || !seat.Alive {
		return
	}

	version := r.engine.Version()
	delay := r.thinkDelay(seat.Difficulty)
	r.engine.SetBotState(seat.ID, BotThinking)
	r.logger.Debug("Scheduling bot turn", "seat", seat.ID, "delay", delay, "version", version)
	r.pending = r.clock.AfterFunc(delay, func() {
		r.think(seat.ID, version)
	}, "runner", "think")
}

func (r *Runner) thinkDelay(d Difficulty) time.Duration {
	lo, hi := r.thinkTime(d)
	return time.Duration(randutil.Between(r.rng, int64(lo), int64(hi)))
}

// stillOnTurn reports whether a bot turn scheduled at version for seatID is
// still the move the game is waiting for.
func (r *Runner) stillOnTurn(seatID string, version uint64) bool {
	if r.stopped || r.engine.Status() != StatusPlaying || r.engine.Version() != version {
		return false
	}
	seat, ok := r.engine.CurrentSeat()
	return ok && seat.ID == seatID && seat.Alive
}

func (r *Runner) think(seatID string, version uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.stillOnTurn(seatID, version) {
		r.logger.Debug("Discarding stale bot turn", "seat", seatID, "version", version)
		return
	}
	if r.playPause <= 0 {
		r.actLocked(seatID)
		return
	}

	r.engine.SetBotState(seatID, BotPlaying)
	r.notifyLocked()
	r.pending = r.clock.AfterFunc(r.playPause, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.stillOnTurn(seatID, version) {
			r.logger.Debug("Discarding stale bot play", "seat", seatID, "version", version)
			return
		}
		r.actLocked(seatID)
	}, "runner", "play")
}

// actLocked asks the seat's agent for a move and plays it through the same
// path as a human play. If the agent's move is rejected the first card is
// played with default options so the game cannot stall.
func (r *Runner) actLocked(seatID string) {
	seat, _ := r.engine.Seat(seatID)
	agent := r.agentFor(seat)
	view := r.engine.TurnView(seatID)
	move := agent.ChooseMove(view)

	res, err := r.engine.PlayCard(seatID, move.CardID, move.Options)
	if err != nil {
		r.logger.Warn("Bot move rejected, playing fallback", "seat", seatID, "card", move.CardID, "error", err)
		fallback := FirstCardAgent{}.ChooseMove(view)
		if res, err = r.engine.PlayCard(seatID, fallback.CardID, fallback.Options); err != nil {
			r.logger.Error("Fallback bot move rejected", "seat", seatID, "error", err)
			return
		}
	}
	r.engine.SetBotState(seatID, BotIdle)
	r.logger.Debug("Bot played", "seat", seatID, "card", res.Card.Label, "total", res.Total, "eliminated", res.Eliminated)

	r.scheduleLocked()
	r.notifyLocked()
}

func (r *Runner) agentFor(seat Seat) Agent {
	if agent, ok := r.agents[seat.ID]; ok {
		return agent
	}
	agent := r.factory(seat.Difficulty)
	r.agents[seat.ID] = agent
	return agent
}

func (r *Runner) notifyLocked() {
	update := r.updateLocked(r.recorder.Drain())
	for _, o := range r.observers {
		o.OnUpdate(update)
	}
}

func (r *Runner) updateLocked(events []GameEvent) Update {
	hands := make(map[string][]deck.Card, r.engine.SeatCount())
	for _, s := range r.engine.seats {
		hands[s.ID] = cloneCards(s.Hand)
	}
	return Update{
		Snapshot: r.engine.Snapshot(),
		hands:    hands,
		Events:   events,
	}
}
