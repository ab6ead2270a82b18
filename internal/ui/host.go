package ui

import (
	"time"

	"go.uber.org/zap"

	"deskpet/internal/pet"
)

type activeEffect struct {
	effect pet.Effect
	until  time.Time
}

// host is the terminal Surface. It only records what the machine asked for;
// Model turns the flags into bubbletea commands after each dispatch.
type host struct {
	log   *zap.Logger
	stage Stage

	anim        Animation
	animGen     uint64
	animChanged bool
	effects     []activeEffect

	moved    bool
	reset    bool
	quitting bool
	restart  bool
}

func (h *host) ApplyAnimation(cmd pet.AnimationCommand) {
	h.animGen++
	h.anim = Animation{
		Command:   cmd,
		StartTime: TimeNow(),
		gen:       h.animGen,
	}
	h.animChanged = true
}

func (h *host) ShowEffect(e pet.Effect) {
	h.effects = append(h.effects, activeEffect{effect: e, until: TimeNow().Add(effectLifetime[e])})
}

func (h *host) Notify(n pet.Notification) {
	h.log.Debug("host notification", zap.Stringer("kind", n.Kind), zap.Int("x", n.X), zap.Int("y", n.Y))
	switch n.Kind {
	case pet.NotifyPositionChanged:
		h.moved = true
	case pet.NotifyPositionReset:
		h.moved = true
		h.reset = true
	case pet.NotifyQuit:
		h.quitting = true
	case pet.NotifyRestart:
		h.restart = true
	}
}

func (h *host) VisibleBounds() pet.Bounds {
	return h.stage.Bounds()
}

func (h *host) liveEffects(now time.Time) []activeEffect {
	var live []activeEffect
	for _, e := range h.effects {
		if now.Before(e.until) {
			live = append(live, e)
		}
	}
	return live
}

func (h *host) pruneEffects(now time.Time) {
	h.effects = h.liveEffects(now)
}
