package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"deskpet/internal/pet"
)

// dragDeadZone is how far the pointer must travel, in cells, before a press
// becomes a drag
const dragDeadZone = 2

// Options configures a terminal pet
type Options struct {
	Catalog      *pet.Catalog
	Settings     pet.Settings
	SettingsPath string // empty disables saving
	Logger       *zap.Logger
}

// Model represents the terminal pet
type Model struct {
	Quitting       bool
	Message        string
	MessageExpires time.Time

	machine      *pet.Machine
	sched        *teaScheduler
	host         *host
	catalog      *pet.Catalog
	log          *zap.Logger
	settings     pet.Settings
	settingsPath string
	sized        bool

	pressing bool
	dragging bool
	hovering bool
	pressX   int
	pressY   int

	menu menuState
}

type menuState struct {
	open   bool
	x, y   int
	items  []pet.MenuItem
	choice int
}

type animTickMsg struct {
	gen uint64
}

// NewModel attaches a machine to a terminal surface
func NewModel(opts Options) (Model, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = pet.DefaultCatalog()
	}

	sched := newTeaScheduler()
	h := &host{log: log}
	machine := pet.New(sched, opts.Settings.MachineConfig(), pet.WithLogger(log))
	if err := machine.Attach(h, catalog); err != nil {
		return Model{}, fmt.Errorf("attach pet: %w", err)
	}

	return Model{
		machine:      machine,
		sched:        sched,
		host:         h,
		catalog:      catalog,
		log:          log,
		settings:     opts.Settings,
		settingsPath: opts.SettingsPath,
	}, nil
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.sched.drain(), animTick(m.host.anim))
}

func animTick(anim Animation) tea.Cmd {
	return tea.Tick(FrameDelay(anim.Command), func(time.Time) tea.Msg {
		return animTickMsg{gen: anim.gen}
	})
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.host.quitting = true
			return m.flush()
		}
		if m.menu.open {
			return m.updateMenuKey(msg.String())
		}
		m.machine.HandleInteraction(pet.Interaction{Kind: pet.KeyPress, Key: msg.String()})
		return m.flush()

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.WindowSizeMsg:
		m.host.stage = Stage{Width: msg.Width, Height: msg.Height}
		if !m.sized {
			m.sized = true
			m.machine.SetPosition(m.settings.Window.X, m.settings.Window.Y)
		} else {
			m.machine.SetPosition(m.machine.Position())
		}
		return m, nil

	case timerMsg:
		m.sched.fire(msg.id)
		return m.flush()

	case animTickMsg:
		// Drop ticks that belong to an older animation
		if msg.gen != m.host.anim.gen {
			return m, nil
		}
		m.host.anim.Frame++
		m.host.pruneEffects(TimeNow())
		return m, animTick(m.host.anim)
	}

	return m, nil
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	x, y := msg.X, toStage(msg.Y)
	px, py := m.machine.Position()

	switch msg.Action {
	case tea.MouseActionPress:
		if m.menu.open {
			if idx, ok := m.menuItemAt(x, y); ok && msg.Button == tea.MouseButtonLeft {
				return m.selectMenuItem(idx)
			}
			m.menu.open = false
			return m, nil
		}
		if !petContains(px, py, x, y) {
			return m, nil
		}
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.pressing = true
			m.pressX, m.pressY = x, y
			m.machine.HandleInteraction(pet.Interaction{Kind: pet.LongPressStart, X: x, Y: y})
		case tea.MouseButtonRight:
			m.openMenu(x, y)
			m.machine.HandleInteraction(pet.Interaction{Kind: pet.ContextMenuOpen, X: x, Y: y})
		}
		return m.flush()

	case tea.MouseActionMotion:
		if m.pressing {
			if !m.dragging {
				if absInt(x-m.pressX) < dragDeadZone && absInt(y-m.pressY) < dragDeadZone {
					return m, nil
				}
				m.dragging = true
				m.machine.HandleInteraction(pet.Interaction{Kind: pet.DragStart, X: m.pressX, Y: m.pressY})
			}
			m.machine.HandleInteraction(pet.Interaction{Kind: pet.DragMove, X: x, Y: y})
			return m.flush()
		}
		inside := petContains(px, py, x, y)
		entered := inside && !m.hovering
		m.hovering = inside
		if entered {
			m.machine.HandleInteraction(pet.Interaction{Kind: pet.Hover, X: x, Y: y})
			return m.flush()
		}
		return m, nil

	case tea.MouseActionRelease:
		if !m.pressing {
			return m, nil
		}
		m.pressing = false
		m.machine.HandleInteraction(pet.Interaction{Kind: pet.LongPressEnd, X: x, Y: y})
		if m.dragging {
			m.dragging = false
			m.machine.HandleInteraction(pet.Interaction{Kind: pet.DragEnd, X: x, Y: y})
		} else {
			m.machine.HandleInteraction(pet.Interaction{Kind: pet.Click, X: x, Y: y})
		}
		return m.flush()
	}

	return m, nil
}

func (m *Model) openMenu(x, y int) {
	items := m.machine.MenuItems()
	w, h := menuSize(items)
	rows := m.host.stage.visibleRows()
	if x+w > m.host.stage.Width {
		x = m.host.stage.Width - w
	}
	if y+h > rows {
		y = rows - h
	}
	m.menu = menuState{
		open:  true,
		x:     max(x, 0),
		y:     max(y, 0),
		items: items,
	}
}

// menuItemAt maps a stage cell to a menu entry, skipping the border rows
func (m Model) menuItemAt(x, y int) (int, bool) {
	w, _ := menuSize(m.menu.items)
	if x < m.menu.x || x >= m.menu.x+w {
		return 0, false
	}
	idx := y - m.menu.y - 1
	if idx < 0 || idx >= len(m.menu.items) {
		return 0, false
	}
	return idx, true
}

func (m Model) updateMenuKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc":
		m.menu.open = false
	case "up", "k":
		if m.menu.choice > 0 {
			m.menu.choice--
		}
	case "down", "j":
		if m.menu.choice < len(m.menu.items)-1 {
			m.menu.choice++
		}
	case "enter", " ":
		return m.selectMenuItem(m.menu.choice)
	}
	return m, nil
}

func (m Model) selectMenuItem(idx int) (tea.Model, tea.Cmd) {
	item := m.menu.items[idx]
	m.menu.open = false
	m.machine.HandleInteraction(pet.Interaction{Kind: pet.ContextMenuSelect, Action: item.Action})
	return m.flush()
}

// flush turns what the machine asked of the host into commands
func (m Model) flush() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.host.restart {
		m.host.restart = false
		m.restart()
	}
	if m.host.reset {
		m.host.reset = false
		m.setMessage("Back to the start")
		m.save()
	}
	if m.host.quitting {
		m.Quitting = true
		m.save()
		m.machine.Detach()
		return m, tea.Quit
	}
	if m.host.animChanged {
		m.host.animChanged = false
		cmds = append(cmds, animTick(m.host.anim))
	}
	cmds = append(cmds, m.sched.drain())
	return m, tea.Batch(cmds...)
}

func (m *Model) restart() {
	m.machine.Detach()
	if err := m.machine.Attach(m.host, m.catalog); err != nil {
		m.log.Error("restart failed", zap.Error(err))
		return
	}
	m.menu = menuState{}
	m.setMessage("Restarted")
	m.log.Info("pet restarted")
}

func (m *Model) save() {
	if m.settingsPath == "" || !m.host.moved {
		return
	}
	m.settings.Window.X, m.settings.Window.Y = m.machine.Position()
	if err := pet.SaveSettings(m.settingsPath, m.settings); err != nil {
		m.log.Error("failed to save settings", zap.Error(err))
		return
	}
	m.host.moved = false
}

func (m *Model) setMessage(msg string) {
	m.Message = msg
	m.MessageExpires = TimeNow().Add(3 * time.Second)
}

// Machine exposes the attached machine, mainly for tests
func (m Model) Machine() *pet.Machine {
	return m.machine
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Run starts the terminal pet and blocks until it quits
func Run(opts Options) error {
	m, err := NewModel(opts)
	if err != nil {
		return err
	}
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running pet: %w", err)
	}
	return nil
}
