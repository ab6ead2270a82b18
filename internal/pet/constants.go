package pet

import "time"

// Interaction timing defaults
const (
	DefaultIdleThreshold      = 5 * time.Second
	DefaultSleepThreshold     = 60 * time.Second
	DefaultLongPressThreshold = 2 * time.Second       // desktop and extension renderer
	StandaloneLongPress       = 800 * time.Millisecond // standalone interaction library
	DefaultDoubleClickWindow  = 300 * time.Millisecond
	DefaultSleepTickPeriod    = 2 * time.Second
	DefaultDragReleaseDelay   = 100 * time.Millisecond // swallows the click that trails a drag
	DefaultAutoInterval       = 10 * time.Second       // host settings default; core default is off

	DefaultResetX = 100
	DefaultResetY = 100
)

// Well-known animation names the machine reacts to
const (
	AnimIdle    = "idle"
	AnimWalk    = "walk"
	AnimJump    = "jump"
	AnimSleep   = "sleep"
	AnimHappy   = "happy"
	AnimCurious = "curious"
	AnimPet     = "pet"
	AnimEat     = "eat"
)

// Context menu structural actions
const (
	ActionReset = "reset"
	ActionQuit  = "quit"
)

// Phase is derived from the time since the last user interaction.
type Phase int

const (
	PhaseActive Phase = iota
	PhaseIdle
	PhaseAsleep
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseIdle:
		return "idle"
	case PhaseAsleep:
		return "asleep"
	default:
		return "unknown"
	}
}

// Effect is a cosmetic emission that does not change the current animation.
type Effect string

const (
	EffectHeart      Effect = "heart"
	EffectSleepGlyph Effect = "sleep"
)
