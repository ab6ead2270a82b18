package ui

import "deskpet/internal/pet"

const (
	minVisibleRows = 6
	headerRows     = 1 // title line above the stage
)

// Stage is the terminal area the pet lives in
type Stage struct {
	Width  int
	Height int
}

// visibleRows leaves room for the title and the help line
func (s Stage) visibleRows() int {
	if s.Height <= 0 {
		return 0
	}
	rows := s.Height - 2
	if rows < minVisibleRows {
		rows = minVisibleRows
	}
	return rows
}

// Bounds reports the stage to the machine so drags keep the pet on screen
func (s Stage) Bounds() pet.Bounds {
	return pet.Bounds{
		Width:     s.Width,
		Height:    s.visibleRows(),
		PetWidth:  petWidth,
		PetHeight: petHeight,
	}
}

// toStage converts a terminal row to a stage row
func toStage(y int) int {
	return y - headerRows
}

// petContains reports whether the stage cell (x, y) is covered by a pet at (px, py)
func petContains(px, py, x, y int) bool {
	return x >= px && x < px+petWidth && y >= py && y < py+petHeight
}
