// Package menu implements the main menu: start a new run or pick a saved
// replay to watch.
package menu

import (
	"fmt"
	"image/color"

	"chosenoffset.com/topdown/internal/render"
	"chosenoffset.com/topdown/internal/replay/storage"
	"chosenoffset.com/topdown/internal/ui/hud"
)

// GameState represents the current state of the game.
type GameState int

const (
	StateMainMenu GameState = iota
	StatePlaying
)

// Selection is what the player picked from the menu.
type Selection struct {
	NewRun bool
	Replay storage.Entry // Set when NewRun is false
}

const (
	listX       = 50
	listY       = 110
	entryHeight = 28
	entryWidth  = 420
)

// MainMenu represents the main menu screen.
type MainMenu struct {
	replays        []storage.Entry
	selected       int
	renderer       render.Renderer
	input          render.InputManager
	screenWidth    int
	screenHeight   int
	lastMouseClick bool
	status         string
}

// NewMainMenu creates a new main menu.
func NewMainMenu(replays []storage.Entry, r render.Renderer, input render.InputManager, width, height int) *MainMenu {
	return &MainMenu{
		replays:      replays,
		renderer:     r,
		input:        input,
		screenWidth:  width,
		screenHeight: height,
	}
}

// SetReplays replaces the listed replays and keeps the cursor in range.
func (m *MainMenu) SetReplays(replays []storage.Entry) {
	m.replays = replays
	if m.selected > len(replays) {
		m.selected = len(replays)
	}
}

// SetStatus shows a one-line message under the list, such as a load error.
func (m *MainMenu) SetStatus(msg string) {
	m.status = msg
}

// SetSize updates the screen dimensions.
func (m *MainMenu) SetSize(width, height int) {
	m.screenWidth = width
	m.screenHeight = height
}

// Selected returns the index of the highlighted item; 0 is "New Run".
func (m *MainMenu) Selected() int {
	return m.selected
}

func (m *MainMenu) itemCount() int {
	return len(m.replays) + 1
}

func (m *MainMenu) selection(i int) Selection {
	if i == 0 {
		return Selection{NewRun: true}
	}
	return Selection{Replay: m.replays[i-1]}
}

// Update updates the menu state based on user input.
// Returns true if an item was chosen, false otherwise.
func (m *MainMenu) Update() (selected bool, selection Selection) {
	mouseX, mouseY := m.input.GetCursorPosition()
	mousePressed := m.input.IsMouseButtonPressed(render.MouseButtonLeft)

	// Detect mouse click (button pressed this frame but not last frame)
	mouseClicked := mousePressed && !m.lastMouseClick
	m.lastMouseClick = mousePressed

	if mouseClicked {
		for i := 0; i < m.itemCount(); i++ {
			r := rect{x: listX, y: listY + i*entryHeight, w: entryWidth, h: entryHeight - 4}
			if pointInRect(mouseX, mouseY, r) {
				if m.selected == i {
					return true, m.selection(i)
				}
				m.selected = i
				break
			}
		}
	}

	// Keyboard navigation
	if m.input.IsKeyJustPressed(render.KeyUp) || m.input.IsKeyJustPressed(render.KeyW) {
		m.selected = (m.selected - 1 + m.itemCount()) % m.itemCount()
	}
	if m.input.IsKeyJustPressed(render.KeyDown) || m.input.IsKeyJustPressed(render.KeyS) {
		m.selected = (m.selected + 1) % m.itemCount()
	}
	if m.input.IsKeyJustPressed(render.KeyEnter) || m.input.IsKeyJustPressed(render.KeySpace) {
		return true, m.selection(m.selected)
	}

	return false, Selection{}
}

// Draw renders the menu to the screen.
func (m *MainMenu) Draw(screen render.Image) {
	// Clear screen with dark background
	screen.Fill(color.RGBA{20, 20, 30, 255})

	titleColor := color.RGBA{255, 255, 255, 255}
	m.renderer.DrawText(screen, "TOPDOWN", listX, 30, titleColor, 3.0)
	m.renderer.DrawText(screen, "Start a run or watch a replay", listX, 75, titleColor, 1.2)

	for i := 0; i < m.itemCount(); i++ {
		y := listY + i*entryHeight
		itemColor := color.RGBA{180, 180, 180, 255}
		if i == m.selected {
			itemColor = color.RGBA{255, 255, 100, 255}
			m.renderer.FillRect(screen, float32(listX-8), float32(y-4), entryWidth, entryHeight-4, color.RGBA{50, 50, 70, 255})
			m.renderer.DrawText(screen, ">", listX-4, y, itemColor, 1.2)
		}
		m.renderer.DrawText(screen, m.label(i), listX+12, y, itemColor, 1.2)
	}

	if len(m.replays) == 0 {
		m.renderer.DrawText(screen, "No saved replays yet. Press K during a run to save one.", listX, listY+2*entryHeight, color.RGBA{150, 150, 150, 255}, 1.0)
	}
	if m.status != "" {
		y := listY + (m.itemCount()+1)*entryHeight
		m.renderer.DrawText(screen, m.status, listX, y, color.RGBA{255, 100, 100, 255}, 1.0)
	}

	// Draw instructions
	instructionY := m.screenHeight - 40
	m.renderer.DrawText(screen, "Up/Down to choose, Enter to start, click twice to open.", 20, instructionY, color.RGBA{150, 150, 150, 255}, 1.0)
}

func (m *MainMenu) label(i int) string {
	if i == 0 {
		return "New Run"
	}
	e := m.replays[i-1]
	return fmt.Sprintf("Replay %s  %s  (%d frames)", e.RecordedAt.Format("2006-01-02 15:04:05"), hud.FormatClock(e.Duration), e.FrameCount)
}

// Helper types and functions

type rect struct {
	x, y, w, h int
}

func pointInRect(px, py int, r rect) bool {
	return px >= r.x && px <= r.x+r.w && py >= r.y && py <= r.y+r.h
}
