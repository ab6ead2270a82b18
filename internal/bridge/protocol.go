package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"deskpet/internal/pet"
)

// Message types beyond the interaction kinds
const (
	typeBounds = "bounds"
	typeMenu   = "menu"

	typeSetAnimation  = "setAnimation"
	typeEffect        = "effect"
	typePosition      = "position"
	typePositionReset = "positionReset"
	typeQuit          = "quit"
	typeRestart       = "restart"
	typeError         = "error"
)

// clientMessage is one inbound JSON object. Type is an interaction kind,
// "bounds" or "menu".
type clientMessage struct {
	Type      string `json:"type"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Key       string `json:"key"`
	Ctrl      bool   `json:"ctrl"`
	Action    string `json:"action"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	PetWidth  int    `json:"petWidth"`
	PetHeight int    `json:"petHeight"`
}

func decodeClientMessage(data []byte) (clientMessage, error) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("malformed message: %w", err)
	}
	if msg.Type == "" {
		return msg, errors.New("message without type")
	}
	return msg, nil
}

func (m clientMessage) interaction() (pet.Interaction, bool) {
	kind, ok := pet.ParseInteractionKind(m.Type)
	if !ok {
		return pet.Interaction{}, false
	}
	return pet.Interaction{Kind: kind, X: m.X, Y: m.Y, Key: machineKey(m.Key, m.Ctrl), Action: m.Action}, true
}

// machineKey maps DOM KeyboardEvent.key values, as browser and desktop hosts
// forward them, onto the machine's key names. Anything else passes through.
func machineKey(key string, ctrl bool) string {
	switch {
	case strings.EqualFold(key, "Escape"), strings.EqualFold(key, "Esc"):
		return pet.KeyEscape
	case key == "Spacebar", strings.EqualFold(key, "space"):
		return pet.KeySpace
	case ctrl && strings.EqualFold(key, "r"):
		return pet.KeyRestart
	}
	return key
}

func (m clientMessage) bounds() pet.Bounds {
	return pet.Bounds{Width: m.Width, Height: m.Height, PetWidth: m.PetWidth, PetHeight: m.PetHeight}
}

type animationMessage struct {
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	Sprite   string  `json:"sprite"`
	Frames   int     `json:"frames"`
	Duration float64 `json:"duration"` // seconds, as in the catalog file
}

type effectMessage struct {
	Type   string `json:"type"`
	Effect string `json:"effect"`
}

type positionMessage struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type menuItem struct {
	Action string `json:"action"`
	Label  string `json:"label"`
}

type menuMessage struct {
	Type  string     `json:"type"`
	Items []menuItem `json:"items"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type signalMessage struct {
	Type string `json:"type"`
}

func newAnimationMessage(cmd pet.AnimationCommand) animationMessage {
	return animationMessage{
		Type:     typeSetAnimation,
		Name:     cmd.Name,
		Sprite:   cmd.Sprite,
		Frames:   cmd.Frames,
		Duration: cmd.Duration.Seconds(),
	}
}

func newNotificationMessage(n pet.Notification) any {
	switch n.Kind {
	case pet.NotifyPositionChanged:
		return positionMessage{Type: typePosition, X: n.X, Y: n.Y}
	case pet.NotifyPositionReset:
		return positionMessage{Type: typePositionReset, X: n.X, Y: n.Y}
	case pet.NotifyQuit:
		return signalMessage{Type: typeQuit}
	case pet.NotifyRestart:
		return signalMessage{Type: typeRestart}
	default:
		return errorMessage{Type: typeError, Message: fmt.Sprintf("unknown notification %d", n.Kind)}
	}
}

func newMenuMessage(items []pet.MenuItem) menuMessage {
	msg := menuMessage{Type: typeMenu, Items: make([]menuItem, 0, len(items))}
	for _, item := range items {
		msg.Items = append(msg.Items, menuItem{Action: item.Action, Label: item.Label})
	}
	return msg
}
