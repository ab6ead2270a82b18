package ui

import (
	"strings"
	"testing"
	"time"

	"deskpet/internal/pet"
)

func TestCatalogAnimationsHaveFrames(t *testing.T) {
	for _, name := range pet.DefaultCatalog().Names() {
		t.Run(name, func(t *testing.T) {
			if AnimationTotalFrames(name) < 2 {
				t.Errorf("Expected at least 2 frames for %q, got %d", name, AnimationTotalFrames(name))
			}
		})
	}
}

func TestAllFramesFitThePetBox(t *testing.T) {
	for name, frames := range AnimationFrames {
		for i, frame := range frames {
			lines := strings.Split(frame, "\n")
			if len(lines) != petHeight {
				t.Errorf("%s[%d] has %d lines, want %d", name, i, len(lines), petHeight)
			}
			for _, line := range lines {
				if len([]rune(line)) != petWidth {
					t.Errorf("%s[%d] line %q is %d wide, want %d", name, i, line, len([]rune(line)), petWidth)
				}
			}
		}
	}
}

func TestGetAnimationFrame(t *testing.T) {
	anim := Animation{Command: pet.AnimationCommand{Name: pet.AnimWalk}}

	first := GetAnimationFrame(anim)
	if len(first) != petHeight {
		t.Fatalf("GetAnimationFrame() = %d lines, want %d", len(first), petHeight)
	}

	// frames loop
	anim.Frame = AnimationTotalFrames(pet.AnimWalk)
	if got := GetAnimationFrame(anim); strings.Join(got, "\n") != strings.Join(first, "\n") {
		t.Errorf("frame after a full cycle = %q, want %q", got, first)
	}

	// unknown names fall back to idle art
	unknown := GetAnimationFrame(Animation{Command: pet.AnimationCommand{Name: "dance"}})
	idle := GetAnimationFrame(Animation{Command: pet.AnimationCommand{Name: pet.AnimIdle}})
	if strings.Join(unknown, "\n") != strings.Join(idle, "\n") {
		t.Errorf("unknown animation = %q, want idle frame", unknown)
	}
}

func TestFrameDelay(t *testing.T) {
	tests := []struct {
		name string
		cmd  pet.AnimationCommand
		want time.Duration
	}{
		{"cycle split over frames", pet.AnimationCommand{Name: pet.AnimWalk, Duration: 600 * time.Millisecond}, 300 * time.Millisecond},
		{"no duration", pet.AnimationCommand{Name: pet.AnimWalk}, AnimationFrameDuration},
		{"floor", pet.AnimationCommand{Name: pet.AnimWalk, Duration: 10 * time.Millisecond}, 50 * time.Millisecond},
		{"unknown uses idle frame count", pet.AnimationCommand{Name: "dance", Duration: 900 * time.Millisecond}, 300 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FrameDelay(tt.cmd); got != tt.want {
				t.Errorf("FrameDelay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnimationFrameDuration(t *testing.T) {
	// Ensure animation frame duration is reasonable (100-500ms)
	if AnimationFrameDuration < 100*time.Millisecond {
		t.Error("Animation frame duration too short")
	}
	if AnimationFrameDuration > 500*time.Millisecond {
		t.Error("Animation frame duration too long")
	}
}

func TestStageBounds(t *testing.T) {
	tests := []struct {
		name     string
		stage    Stage
		wantRows int
		wantMaxX int
	}{
		{"regular terminal", Stage{Width: 80, Height: 24}, 22, 73},
		{"tiny terminal keeps minimum rows", Stage{Width: 5, Height: 4}, minVisibleRows, 0},
		{"unsized", Stage{}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stage.visibleRows(); got != tt.wantRows {
				t.Errorf("visibleRows() = %d, want %d", got, tt.wantRows)
			}
			x, _ := tt.stage.Bounds().Clamp(1000, 1000)
			if x != tt.wantMaxX {
				t.Errorf("Bounds().Clamp() x = %d, want %d", x, tt.wantMaxX)
			}
		})
	}
}
