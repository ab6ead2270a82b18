package ui

import (
	"strings"
	"time"

	"deskpet/internal/pet"
)

// Every frame is petHeight lines of exactly petWidth cells
const (
	petWidth  = 7
	petHeight = 3
)

// AnimationFrames contains ASCII art frames for each catalog animation name
var AnimationFrames = map[string][]string{
	pet.AnimIdle: {
		" /\\_/\\ \n( o.o )\n > ^ < ",
		" /\\_/\\ \n( o.o )\n > ^ < ",
		" /\\_/\\ \n( -.- )\n > ^ < ",
	},
	pet.AnimWalk: {
		" /\\_/\\ \n( o.o )\n /   \\ ",
		" /\\_/\\ \n( o.o )\n  | |  ",
	},
	pet.AnimJump: {
		" /\\_/\\ \n( o.o )\n > ^ < ",
		" /\\_/\\ \n( ^o^ )\n \\   / ",
		" /\\_/\\ \n( ^o^ )\n  \\ /  ",
	},
	pet.AnimHappy: {
		" /\\_/\\ \n( ^.^ )\n > ^ < ",
		" /\\_/\\ \n( ^o^ )\n > ^ < ",
	},
	pet.AnimPet: {
		" /\\_/\\ \n( =.= )\n > ~ < ",
		" /\\_/\\ \n( =w= )\n > ~ < ",
	},
	pet.AnimSleep: {
		" /\\_/\\ \n( -.- )\n > ^ < ",
		" /\\_/\\ \n( -_- )\n > ^ < ",
	},
	pet.AnimEat: {
		" /\\_/\\ \n( o.o )\n > ^ <<",
		" /\\_/\\ \n( >o< )\n > ^ <<",
	},
	pet.AnimCurious: {
		" /\\_/\\ \n( O.O )\n > ? < ",
		" /\\_/\\ \n( o.O )\n > ? < ",
	},
}

// AnimationFrameDuration is the frame delay when the catalog gives none
const AnimationFrameDuration = 200 * time.Millisecond

// Effect overlays drawn next to the pet
var effectGlyphs = map[pet.Effect]string{
	pet.EffectHeart:      "<3",
	pet.EffectSleepGlyph: "zZ",
}

// How long an effect stays on screen
var effectLifetime = map[pet.Effect]time.Duration{
	pet.EffectHeart:      time.Second,
	pet.EffectSleepGlyph: 1500 * time.Millisecond,
}

// Animation holds the animation the host was last told to play
type Animation struct {
	Command   pet.AnimationCommand
	Frame     int
	StartTime time.Time
	gen       uint64
}

// GetAnimationFrame returns the current frame split into lines. Names without
// ASCII art fall back to idle; the frame index wraps because pet animations loop.
func GetAnimationFrame(anim Animation) []string {
	frames, ok := AnimationFrames[anim.Command.Name]
	if !ok {
		frames = AnimationFrames[pet.AnimIdle]
	}
	return strings.Split(frames[anim.Frame%len(frames)], "\n")
}

// FrameDelay spreads the catalog cycle duration over the ASCII frames
func FrameDelay(cmd pet.AnimationCommand) time.Duration {
	frames := AnimationTotalFrames(cmd.Name)
	if frames == 0 {
		frames = AnimationTotalFrames(pet.AnimIdle)
	}
	if cmd.Duration <= 0 {
		return AnimationFrameDuration
	}
	d := cmd.Duration / time.Duration(frames)
	if d < 50*time.Millisecond {
		d = 50 * time.Millisecond
	}
	return d
}

// AnimationTotalFrames returns the number of ASCII frames for an animation name
func AnimationTotalFrames(name string) int {
	return len(AnimationFrames[name])
}
