package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"deskpet/internal/pet"
)

var gameStyles = struct {
	title  lipgloss.Style
	status lipgloss.Style
	help   lipgloss.Style
}{
	title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF75B5")).
		Padding(0, 1),

	status: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FF75B5")),

	help: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")),
}

// View implements tea.Model
func (m Model) View() string {
	if m.Quitting {
		return "See you soon!\n"
	}
	if m.host.stage.Width == 0 || m.host.stage.Height == 0 {
		return "Initializing..."
	}

	header := gameStyles.title.Render(fmt.Sprintf("deskpet · %s · %s", m.animationLabel(), m.machine.Phase()))

	footer := "drag to move · click · double-click · hold to pet · right-click menu · 1-9 · space · q to quit"
	if m.Message != "" && TimeNow().Before(m.MessageExpires) {
		footer = gameStyles.status.Render(m.Message)
	} else {
		footer = gameStyles.help.Render(footer)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, m.renderStage(), footer)
}

func (m Model) animationLabel() string {
	name := m.machine.CurrentAnimation()
	if name == "" {
		return "-"
	}
	if def, ok := m.catalog.Lookup(name); ok {
		return def.DisplayLabel()
	}
	return name
}

// renderStage draws the pet, its effects and the context menu into a grid
// the size of the visible stage.
func (m Model) renderStage() string {
	rows := m.host.stage.visibleRows()
	width := m.host.stage.Width

	grid := make([][]rune, rows)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", width))
	}

	px, py := m.machine.Position()
	for i, line := range GetAnimationFrame(m.host.anim) {
		writeAt(grid, px, py+i, line)
	}

	ex := px + petWidth
	ey := py - 1
	if ey < 0 {
		ey = py
	}
	for _, e := range m.host.liveEffects(TimeNow()) {
		glyph := effectGlyphs[e.effect]
		writeAt(grid, ex, ey, glyph)
		ex += len(glyph) + 1
	}

	if m.menu.open {
		for i, line := range renderMenu(m.menu) {
			writeAt(grid, m.menu.x, m.menu.y+i, line)
		}
	}

	lines := make([]string, rows)
	for y := range grid {
		lines[y] = string(grid[y])
	}
	return strings.Join(lines, "\n")
}

// writeAt copies s into the grid, clipping at the edges
func writeAt(grid [][]rune, x, y int, s string) {
	if y < 0 || y >= len(grid) {
		return
	}
	for i, r := range []rune(s) {
		if x+i >= 0 && x+i < len(grid[y]) {
			grid[y][x+i] = r
		}
	}
}

func menuSize(items []pet.MenuItem) (int, int) {
	w := 0
	for _, item := range items {
		if len(item.Label) > w {
			w = len(item.Label)
		}
	}
	// "| > label |"
	return w + 6, len(items) + 2
}

func renderMenu(menu menuState) []string {
	w, _ := menuSize(menu.items)
	border := "+" + strings.Repeat("-", w-2) + "+"

	lines := []string{border}
	for i, item := range menu.items {
		cursor := " "
		if menu.choice == i {
			cursor = ">"
		}
		lines = append(lines, fmt.Sprintf("| %s %-*s |", cursor, w-6, item.Label))
	}
	return append(lines, border)
}
