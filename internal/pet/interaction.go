package pet

// InteractionKind enumerates the user input events a Machine accepts
type InteractionKind int

const (
	Click InteractionKind = iota
	DoubleClick
	LongPressStart
	LongPressEnd
	DragStart
	DragMove
	DragEnd
	Hover
	ContextMenuOpen
	ContextMenuSelect
	KeyPress
)

var interactionNames = [...]string{
	Click:             "click",
	DoubleClick:       "doubleClick",
	LongPressStart:    "longPressStart",
	LongPressEnd:      "longPressEnd",
	DragStart:         "dragStart",
	DragMove:          "dragMove",
	DragEnd:           "dragEnd",
	Hover:             "hover",
	ContextMenuOpen:   "contextMenuOpen",
	ContextMenuSelect: "contextMenuSelect",
	KeyPress:          "keyPress",
}

func (k InteractionKind) String() string {
	if k >= 0 && int(k) < len(interactionNames) {
		return interactionNames[k]
	}
	return "unknown"
}

// ParseInteractionKind maps a wire name back to its kind
func ParseInteractionKind(s string) (InteractionKind, bool) {
	for i, name := range interactionNames {
		if name == s {
			return InteractionKind(i), true
		}
	}
	return 0, false
}

// Interaction is one input event. X and Y are pointer coordinates for drag
// kinds, Key is set for KeyPress and Action for ContextMenuSelect.
type Interaction struct {
	Kind   InteractionKind
	X, Y   int
	Key    string
	Action string
}

// Key names understood by KeyPress
const (
	KeySpace   = " "
	KeyEscape  = "esc"
	KeyRestart = "ctrl+r"
)

// MenuItem is one entry of the context menu
type MenuItem struct {
	Action string
	Label  string
}
