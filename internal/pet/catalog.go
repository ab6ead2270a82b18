package pet

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrEmptyCatalog is returned when a catalog source defines no animations.
var ErrEmptyCatalog = errors.New("catalog has no animations")

// AnimationDefinition describes one named sprite animation
type AnimationDefinition struct {
	Name     string
	Sprite   string // opaque resource handle, interpreted by the host
	Frames   int
	Duration time.Duration // one full cycle
	Label    string
}

// DisplayLabel returns the menu label, falling back to the name
func (d AnimationDefinition) DisplayLabel() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// Catalog is the read-only, ordered set of animations available to one pet.
type Catalog struct {
	order []string
	defs  map[string]AnimationDefinition
}

// NewCatalog validates the definitions and builds a catalog in the given order.
func NewCatalog(defs ...AnimationDefinition) (*Catalog, error) {
	c := &Catalog{
		order: make([]string, 0, len(defs)),
		defs:  make(map[string]AnimationDefinition, len(defs)),
	}
	for _, d := range defs {
		if d.Name == "" {
			return nil, errors.New("animation with empty name")
		}
		if _, dup := c.defs[d.Name]; dup {
			return nil, fmt.Errorf("duplicate animation %q", d.Name)
		}
		if d.Frames < 1 {
			return nil, fmt.Errorf("animation %q: frames must be >= 1, got %d", d.Name, d.Frames)
		}
		if d.Duration <= 0 {
			return nil, fmt.Errorf("animation %q: duration must be > 0, got %s", d.Name, d.Duration)
		}
		c.order = append(c.order, d.Name)
		c.defs[d.Name] = d
	}
	return c, nil
}

// Lookup returns the definition for name
func (c *Catalog) Lookup(name string) (AnimationDefinition, bool) {
	if c == nil {
		return AnimationDefinition{}, false
	}
	d, ok := c.defs[name]
	return d, ok
}

// Has reports whether name is in the catalog
func (c *Catalog) Has(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// Names returns animation names in insertion order
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Len returns the number of animations
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Definitions returns all definitions in insertion order
func (c *Catalog) Definitions() []AnimationDefinition {
	if c == nil {
		return nil
	}
	out := make([]AnimationDefinition, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.defs[name])
	}
	return out
}

// DefaultCatalog mirrors the generator's standard preset, sprite sheets named <anim>.png
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		AnimationDefinition{Name: AnimIdle, Sprite: "idle.png", Frames: 8, Duration: 800 * time.Millisecond, Label: "Idle"},
		AnimationDefinition{Name: AnimWalk, Sprite: "walk.png", Frames: 8, Duration: 600 * time.Millisecond, Label: "Walk"},
		AnimationDefinition{Name: AnimJump, Sprite: "jump.png", Frames: 6, Duration: 500 * time.Millisecond, Label: "Jump"},
		AnimationDefinition{Name: AnimHappy, Sprite: "happy.png", Frames: 8, Duration: 600 * time.Millisecond, Label: "Happy"},
		AnimationDefinition{Name: AnimPet, Sprite: "pet.png", Frames: 6, Duration: 500 * time.Millisecond, Label: "Pet"},
		AnimationDefinition{Name: AnimSleep, Sprite: "sleep.png", Frames: 4, Duration: 1200 * time.Millisecond, Label: "Sleep"},
		AnimationDefinition{Name: AnimEat, Sprite: "eat.png", Frames: 8, Duration: 700 * time.Millisecond, Label: "Eat"},
		AnimationDefinition{Name: AnimCurious, Sprite: "curious.png", Frames: 6, Duration: 600 * time.Millisecond, Label: "Curious"},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// catalogEntry is the on-disk shape written by the generator
type catalogEntry struct {
	Sprite   string  `yaml:"sprite"`
	Frames   int     `yaml:"frames"`
	Duration float64 `yaml:"duration"` // seconds
	Label    string  `yaml:"label"`
}

// ParseCatalog decodes a YAML (or JSON) mapping of name -> {sprite, frames, duration}.
// Key order in the document becomes catalog order.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, ErrEmptyCatalog
	}
	root := doc.Content[0]
	// Accept either a bare mapping or one nested under "animations".
	if root.Kind == yaml.MappingNode && len(root.Content) == 2 && root.Content[0].Value == "animations" {
		root = root.Content[1]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse catalog: expected a mapping at line %d", root.Line)
	}
	if len(root.Content) == 0 {
		return nil, ErrEmptyCatalog
	}

	defs := make([]AnimationDefinition, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		var e catalogEntry
		if err := val.Decode(&e); err != nil {
			return nil, fmt.Errorf("parse catalog entry %q: %w", key.Value, err)
		}
		if e.Frames == 0 {
			e.Frames = 1
		}
		if e.Duration == 0 {
			e.Duration = 0.8
		}
		if e.Sprite == "" {
			e.Sprite = key.Value + ".png"
		}
		defs = append(defs, AnimationDefinition{
			Name:     key.Value,
			Sprite:   e.Sprite,
			Frames:   e.Frames,
			Duration: time.Duration(e.Duration * float64(time.Second)),
			Label:    e.Label,
		})
	}
	return NewCatalog(defs...)
}

// LoadCatalog reads and parses a catalog file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return c, nil
}
