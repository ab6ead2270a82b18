package pet

import "time"

// AnimationCommand asks the host to render a catalog animation
type AnimationCommand struct {
	Name     string
	Sprite   string
	Frames   int
	Duration time.Duration
}

// NotificationKind enumerates host-level requests
type NotificationKind int

const (
	NotifyPositionChanged NotificationKind = iota
	NotifyPositionReset
	NotifyQuit
	NotifyRestart
)

func (k NotificationKind) String() string {
	switch k {
	case NotifyPositionChanged:
		return "position"
	case NotifyPositionReset:
		return "positionReset"
	case NotifyQuit:
		return "quit"
	case NotifyRestart:
		return "restart"
	default:
		return "unknown"
	}
}

// Notification is sent to the host; X and Y are set for position kinds
type Notification struct {
	Kind NotificationKind
	X, Y int
}

// Surface is the host adapter a Machine drives. Desktop, extension and
// terminal hosts differ only in how they implement it.
type Surface interface {
	ApplyAnimation(cmd AnimationCommand)
	ShowEffect(effect Effect)
	Notify(n Notification)
}

// Bounds is the visible area and the pet's footprint inside it
type Bounds struct {
	Width, Height       int
	PetWidth, PetHeight int
}

// Clamp keeps the pet's top-left corner such that the whole pet stays visible.
// An area smaller than the pet pins it to the origin.
func (b Bounds) Clamp(x, y int) (int, int) {
	maxX := b.Width - b.PetWidth
	maxY := b.Height - b.PetHeight
	if maxX < 0 {
		maxX = 0
	}
	if maxY < 0 {
		maxY = 0
	}
	return clamp(x, 0, maxX), clamp(y, 0, maxY)
}

// Bounded is implemented by surfaces that own the pet's position. Drag
// positions on such surfaces are clamped to VisibleBounds.
type Bounded interface {
	VisibleBounds() Bounds
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
