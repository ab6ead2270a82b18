package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"deskpet/internal/pet"
)

// CatalogModel is a simple Bubble Tea model for displaying a catalog
type CatalogModel struct {
	Catalog *pet.Catalog
}

// Init implements tea.Model
func (m CatalogModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m CatalogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, tea.Quit
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress {
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model
func (m CatalogModel) View() string {
	return RenderCatalog(m.Catalog) + "\nPress ESC, click, or any key to close..."
}

// RenderCatalog lists each animation with its key binding, frames and cycle
// time next to its first ASCII frame.
func RenderCatalog(c *pet.Catalog) string {
	defs := c.Definitions()
	if len(defs) == 0 {
		return gameStyles.status.Render("No animations.") + "\n"
	}

	var rows []string
	for i, d := range defs {
		key := " "
		if i < 9 {
			key = fmt.Sprint(i + 1)
		}
		info := fmt.Sprintf("[%s] %-10s %-14s %2d frames  %5dms",
			key, d.Name, d.DisplayLabel(), d.Frames, d.Duration.Milliseconds())
		art := strings.Join(GetAnimationFrame(Animation{Command: pet.AnimationCommand{Name: d.Name}}), "\n")
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Center, art, "  ", info))
	}

	title := gameStyles.title.Render(fmt.Sprintf("%d animations", len(defs)))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#FF75B5")).
		Padding(0, 1)

	return lipgloss.JoinVertical(lipgloss.Left, title, box.Render(strings.Join(rows, "\n"))) + "\n"
}

// DisplayCatalog shows the catalog until a key or click
func DisplayCatalog(c *pet.Catalog) error {
	program := tea.NewProgram(CatalogModel{Catalog: c}, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running catalog display: %w", err)
	}
	return nil
}
