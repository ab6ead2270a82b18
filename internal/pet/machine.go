package pet

import (
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

var (
	ErrAlreadyAttached = errors.New("machine already attached")
	ErrNotAttached     = errors.New("machine not attached")
	ErrNilSurface      = errors.New("nil surface")
	ErrNilCatalog      = errors.New("nil catalog")
)

// Config holds the interaction thresholds. Zero durations fall back to the
// defaults, except AutoInterval where zero disables auto animation.
type Config struct {
	IdleThreshold      time.Duration
	SleepThreshold     time.Duration
	LongPressThreshold time.Duration
	DoubleClickWindow  time.Duration
	SleepTickPeriod    time.Duration
	DragReleaseDelay   time.Duration
	AutoInterval       time.Duration
	ResetX, ResetY     int
}

// DefaultConfig returns the desktop renderer's timings with auto animation off
func DefaultConfig() Config {
	return Config{
		IdleThreshold:      DefaultIdleThreshold,
		SleepThreshold:     DefaultSleepThreshold,
		LongPressThreshold: DefaultLongPressThreshold,
		DoubleClickWindow:  DefaultDoubleClickWindow,
		SleepTickPeriod:    DefaultSleepTickPeriod,
		DragReleaseDelay:   DefaultDragReleaseDelay,
		ResetX:             DefaultResetX,
		ResetY:             DefaultResetY,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.IdleThreshold <= 0 {
		c.IdleThreshold = d.IdleThreshold
	}
	if c.SleepThreshold <= 0 {
		c.SleepThreshold = d.SleepThreshold
	}
	if c.LongPressThreshold <= 0 {
		c.LongPressThreshold = d.LongPressThreshold
	}
	if c.DoubleClickWindow <= 0 {
		c.DoubleClickWindow = d.DoubleClickWindow
	}
	if c.SleepTickPeriod <= 0 {
		c.SleepTickPeriod = d.SleepTickPeriod
	}
	if c.DragReleaseDelay <= 0 {
		c.DragReleaseDelay = d.DragReleaseDelay
	}
	if c.AutoInterval < 0 {
		c.AutoInterval = 0
	}
	return c
}

// Option configures a Machine
type Option func(*Machine)

// WithLogger sets the logger; the default discards everything
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.log = l
		}
	}
}

// WithRand replaces the source used by TriggerRandomAnimation. intn must
// return a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(m *Machine) {
		if intn != nil {
			m.intn = intn
		}
	}
}

// Machine is the interaction state of one attached pet. It is not safe for
// concurrent use: events and timer callbacks must arrive on one goroutine.
type Machine struct {
	cfg    Config
	log    *zap.Logger
	sched  Scheduler
	intn   func(n int) int
	timers timerSet

	surface  Surface
	catalog  *Catalog
	attached bool

	current         string
	lastInteraction time.Time

	// dragging stays set through the release debounce so a trailing click is
	// swallowed; pointerDown only covers dragStart..dragEnd.
	dragging    bool
	pointerDown bool
	dragOffX    int
	dragOffY    int
	x, y        int

	pressed       bool
	clicks        int
	doubleClickAt time.Time
}

// New creates a detached machine driven by sched
func New(sched Scheduler, cfg Config, opts ...Option) *Machine {
	cfg = cfg.withDefaults()
	m := &Machine{
		cfg:   cfg,
		log:   zap.NewNop(),
		sched: sched,
		intn:  rand.Intn,
		x:     cfg.ResetX,
		y:     cfg.ResetY,
	}
	m.timers.sched = sched
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attach binds the machine to a host surface and catalog, shows the idle
// animation when the catalog has one and starts the idle/sleep countdown.
func (m *Machine) Attach(s Surface, c *Catalog) error {
	if m.attached {
		return ErrAlreadyAttached
	}
	if s == nil {
		return ErrNilSurface
	}
	if c == nil {
		return ErrNilCatalog
	}

	m.surface = s
	m.catalog = c
	m.attached = true
	m.current = ""
	m.dragging = false
	m.pointerDown = false
	m.pressed = false
	m.clicks = 0
	m.doubleClickAt = time.Time{}
	m.x, m.y = m.clampToSurface(m.x, m.y)

	m.log.Debug("attached", zap.Int("animations", c.Len()))

	if c.Has(AnimIdle) {
		m.SwitchAnimation(AnimIdle)
	}
	m.touch()
	m.armAuto()
	return nil
}

// Detach cancels every pending timer and releases the surface. Events and
// stale timer callbacks arriving afterwards are ignored.
func (m *Machine) Detach() {
	if !m.attached {
		return
	}
	m.timers.cancelAll()
	m.attached = false
	m.surface = nil
	m.dragging = false
	m.pointerDown = false
	m.pressed = false
	m.clicks = 0
	m.log.Debug("detached")
}

// Attached reports whether the machine currently drives a surface
func (m *Machine) Attached() bool { return m.attached }

// CurrentAnimation returns the last animation switched to, or "" before any switch
func (m *Machine) CurrentAnimation() string { return m.current }

// Dragging reports the drag flag, which stays set through the release debounce
func (m *Machine) Dragging() bool { return m.dragging }

// LastInteraction returns when the last user event was handled
func (m *Machine) LastInteraction() time.Time { return m.lastInteraction }

// Config returns the effective thresholds
func (m *Machine) Config() Config { return m.cfg }

// Catalog returns the attached catalog, nil when detached
func (m *Machine) Catalog() *Catalog {
	if !m.attached {
		return nil
	}
	return m.catalog
}

// Position returns the pet's top-left corner as tracked by the machine
func (m *Machine) Position() (int, int) { return m.x, m.y }

// SetPosition restores a known position without notifying the host
func (m *Machine) SetPosition(x, y int) {
	m.x, m.y = m.clampToSurface(x, y)
}

// TimerPending reports whether a timer of the given kind is armed
func (m *Machine) TimerPending(kind TimerKind) bool {
	return m.timers.active(kind)
}

// Phase derives ACTIVE/IDLE/ASLEEP from the time since the last interaction
func (m *Machine) Phase() Phase {
	// a held drag is an ongoing interaction however long the pointer rests
	if !m.attached || m.pointerDown {
		return PhaseActive
	}
	elapsed := m.sched.Now().Sub(m.lastInteraction)
	switch {
	case elapsed >= m.cfg.SleepThreshold:
		return PhaseAsleep
	case elapsed >= m.cfg.IdleThreshold:
		return PhaseIdle
	default:
		return PhaseActive
	}
}

// MenuItems lists catalog animations followed by the structural actions
func (m *Machine) MenuItems() []MenuItem {
	var items []MenuItem
	for _, d := range m.catalog.Definitions() {
		items = append(items, MenuItem{Action: d.Name, Label: d.DisplayLabel()})
	}
	return append(items,
		MenuItem{Action: ActionReset, Label: "Reset position"},
		MenuItem{Action: ActionQuit, Label: "Quit"},
	)
}

// HandleInteraction applies one user event. Every kind resets the machine to
// ACTIVE and reschedules the idle and sleep timers before its own handling.
func (m *Machine) HandleInteraction(in Interaction) {
	if !m.attached {
		m.log.Debug("event ignored on detached surface", zap.Stringer("kind", in.Kind))
		return
	}
	m.touch()

	switch in.Kind {
	case Click:
		m.click()
	case DoubleClick:
		m.doubleClick()
	case LongPressStart:
		m.longPressStart()
	case LongPressEnd:
		m.longPressEnd()
	case DragStart:
		m.dragStart(in.X, in.Y)
	case DragMove:
		m.dragMove(in.X, in.Y)
	case DragEnd:
		m.dragEnd()
	case Hover:
		m.hover()
	case ContextMenuOpen:
		// only resets the idle countdown
	case ContextMenuSelect:
		m.menuSelect(in.Action)
	case KeyPress:
		m.keyPress(in.Key)
	default:
		m.log.Warn("unknown interaction kind", zap.Int("kind", int(in.Kind)))
	}
}

// SwitchAnimation makes name current and asks the host to render it. Unknown
// names are logged and leave the state untouched.
func (m *Machine) SwitchAnimation(name string) bool {
	if !m.attached {
		return false
	}
	def, ok := m.catalog.Lookup(name)
	if !ok {
		m.log.Warn("unknown animation", zap.String("animation", name))
		return false
	}
	m.current = name
	m.surface.ApplyAnimation(AnimationCommand{
		Name:     def.Name,
		Sprite:   def.Sprite,
		Frames:   def.Frames,
		Duration: def.Duration,
	})
	m.log.Debug("switched animation", zap.String("animation", name))
	return true
}

// TriggerRandomAnimation switches to a uniformly chosen animation other than walk
func (m *Machine) TriggerRandomAnimation() {
	if !m.attached {
		return
	}
	var candidates []string
	for _, name := range m.catalog.Names() {
		if name != AnimWalk {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return
	}
	m.SwitchAnimation(candidates[m.intn(len(candidates))])
}

// touch records an interaction: the sleep ticker stops and both the idle and
// sleep countdowns restart from now.
func (m *Machine) touch() {
	m.lastInteraction = m.sched.Now()
	m.timers.cancel(TimerSleepTick)
	m.timers.arm(TimerIdle, m.cfg.IdleThreshold, m.onIdle)
	m.timers.arm(TimerSleep, m.cfg.SleepThreshold, m.onSleep)
}

func (m *Machine) sinceInteraction() time.Duration {
	return m.sched.Now().Sub(m.lastInteraction)
}

func (m *Machine) onIdle() {
	if m.sinceInteraction() < m.cfg.IdleThreshold {
		return
	}
	if m.dragging {
		return
	}
	m.log.Debug("idle")
	if m.catalog.Has(AnimIdle) {
		m.SwitchAnimation(AnimIdle)
	}
}

func (m *Machine) onSleep() {
	if m.sinceInteraction() < m.cfg.SleepThreshold {
		return
	}
	if m.dragging {
		return
	}
	m.log.Debug("asleep")
	if m.catalog.Has(AnimSleep) {
		m.SwitchAnimation(AnimSleep)
	}
	m.timers.arm(TimerSleepTick, m.cfg.SleepTickPeriod, m.onSleepTick)
}

func (m *Machine) onSleepTick() {
	if m.sinceInteraction() < m.cfg.SleepThreshold {
		return
	}
	m.surface.ShowEffect(EffectSleepGlyph)
	m.timers.arm(TimerSleepTick, m.cfg.SleepTickPeriod, m.onSleepTick)
}

func (m *Machine) armAuto() {
	if m.cfg.AutoInterval <= 0 {
		return
	}
	m.timers.arm(TimerAuto, m.cfg.AutoInterval, func() {
		if !m.dragging && m.Phase() != PhaseAsleep {
			m.TriggerRandomAnimation()
		}
		m.armAuto()
	})
}

func (m *Machine) click() {
	if m.dragging {
		return
	}
	m.clicks++
	if m.clicks == 1 {
		m.timers.arm(TimerClick, m.cfg.DoubleClickWindow, func() {
			m.clicks = 0
			m.SwitchAnimation(AnimJump)
		})
		return
	}
	m.timers.cancel(TimerClick)
	m.clicks = 0
	m.doubleClickAt = m.sched.Now()
	m.SwitchAnimation(AnimHappy)
}

// doubleClick handles a host-native double click. When the click counter has
// just resolved the same burst, the native event is an echo and is dropped.
func (m *Machine) doubleClick() {
	if m.dragging {
		return
	}
	now := m.sched.Now()
	if !m.doubleClickAt.IsZero() && now.Sub(m.doubleClickAt) <= m.cfg.DoubleClickWindow {
		m.doubleClickAt = time.Time{}
		return
	}
	m.timers.cancel(TimerClick)
	m.clicks = 0
	m.doubleClickAt = now
	m.SwitchAnimation(AnimHappy)
}

func (m *Machine) longPressStart() {
	m.pressed = true
	m.timers.arm(TimerLongPress, m.cfg.LongPressThreshold, func() {
		if !m.pressed {
			return
		}
		m.pressed = false
		m.SwitchAnimation(AnimPet)
		m.surface.ShowEffect(EffectHeart)
	})
}

func (m *Machine) longPressEnd() {
	m.pressed = false
	m.timers.cancel(TimerLongPress)
}

// dragStart supersedes a pending click burst and a pending long press.
func (m *Machine) dragStart(x, y int) {
	m.timers.cancel(TimerDragRelease)
	m.timers.cancel(TimerClick)
	m.clicks = 0
	m.timers.cancel(TimerLongPress)
	m.pressed = false

	m.dragging = true
	m.pointerDown = true
	m.dragOffX = x - m.x
	m.dragOffY = y - m.y

	if m.catalog.Has(AnimWalk) {
		m.SwitchAnimation(AnimWalk)
	}
}

func (m *Machine) dragMove(x, y int) {
	if !m.pointerDown {
		return
	}
	nx, ny := m.clampToSurface(x-m.dragOffX, y-m.dragOffY)
	if nx == m.x && ny == m.y {
		return
	}
	m.x, m.y = nx, ny
	m.surface.Notify(Notification{Kind: NotifyPositionChanged, X: nx, Y: ny})
}

func (m *Machine) dragEnd() {
	if !m.pointerDown {
		return
	}
	m.pointerDown = false
	if m.catalog.Has(AnimIdle) {
		m.SwitchAnimation(AnimIdle)
	}
	m.timers.arm(TimerDragRelease, m.cfg.DragReleaseDelay, func() {
		m.dragging = false
	})
}

func (m *Machine) hover() {
	if m.dragging {
		return
	}
	switch {
	case m.catalog.Has(AnimCurious):
		m.SwitchAnimation(AnimCurious)
	case m.catalog.Has(AnimHappy):
		m.SwitchAnimation(AnimHappy)
	}
}

func (m *Machine) menuSelect(action string) {
	switch action {
	case ActionReset:
		m.x, m.y = m.clampToSurface(m.cfg.ResetX, m.cfg.ResetY)
		m.surface.Notify(Notification{Kind: NotifyPositionReset, X: m.x, Y: m.y})
	case ActionQuit:
		m.surface.Notify(Notification{Kind: NotifyQuit})
	default:
		m.SwitchAnimation(action)
	}
}

// keyPress: digits 1-9 pick a catalog entry by position, space picks at
// random, escape quits and ctrl+r asks the host to restart.
func (m *Machine) keyPress(key string) {
	switch key {
	case KeySpace, "space":
		m.TriggerRandomAnimation()
		return
	case KeyEscape, "escape":
		m.surface.Notify(Notification{Kind: NotifyQuit})
		return
	case KeyRestart:
		m.surface.Notify(Notification{Kind: NotifyRestart})
		return
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		idx := int(key[0] - '1')
		names := m.catalog.Names()
		if idx < len(names) {
			m.SwitchAnimation(names[idx])
		}
		return
	}
	m.log.Debug("unbound key", zap.String("key", key))
}

func (m *Machine) clampToSurface(x, y int) (int, int) {
	if b, ok := m.surface.(Bounded); ok {
		return b.VisibleBounds().Clamp(x, y)
	}
	return x, y
}
