package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"chosenoffset.com/topdown/internal/render"
	"chosenoffset.com/topdown/internal/replay"
	"chosenoffset.com/topdown/internal/simulation"
	"chosenoffset.com/topdown/internal/ui/menu"
)

// Manager handles the overall game state, including menu and gameplay.
type Manager struct {
	ScreenWidth  int
	ScreenHeight int
	TickDelta    float64
	Seed         int64 // 0 seeds from the clock

	State    menu.GameState
	MainMenu *menu.MainMenu
	Game     *Game
	Rules    *simulation.Config
	Store    ReplayStore
	Renderer render.Renderer
	InputMgr render.InputManager

	log logrus.FieldLogger
}

// NewManager creates a new game manager.
func NewManager(r render.Renderer, input render.InputManager, rules *simulation.Config, store ReplayStore, width, height int, tickDelta float64, log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if rules == nil {
		rules = simulation.DefaultConfig()
	}
	m := &Manager{
		ScreenWidth:  width,
		ScreenHeight: height,
		TickDelta:    tickDelta,
		State:        menu.StateMainMenu,
		Rules:        rules,
		Store:        store,
		Renderer:     r,
		InputMgr:     input,
		log:          log,
	}
	m.MainMenu = menu.NewMainMenu(nil, r, input, width, height)
	m.RefreshReplays()
	return m
}

// RefreshReplays reloads the replay list shown by the menu.
func (m *Manager) RefreshReplays() {
	if m.Store == nil {
		return
	}
	entries, err := m.Store.List()
	if err != nil {
		m.log.WithError(err).Warn("Failed to list replays")
		m.MainMenu.SetStatus("Could not read replay directory")
		return
	}
	m.MainMenu.SetReplays(entries)
}

// Update updates the game state.
func (m *Manager) Update() error {
	switch m.State {
	case menu.StateMainMenu:
		selected, selection := m.MainMenu.Update()
		if !selected {
			return nil
		}
		if selection.NewRun {
			m.StartRun()
		} else if err := m.OpenReplay(selection.Replay.Path); err != nil {
			m.log.WithError(err).WithField("path", selection.Replay.Path).Warn("Failed to open replay")
			m.MainMenu.SetStatus(fmt.Sprintf("Failed to open replay: %v", err))
			return nil
		}
		m.State = menu.StatePlaying
	case menu.StatePlaying:
		if m.Game == nil {
			m.State = menu.StateMainMenu
			return nil
		}
		if err := m.Game.Update(); err != nil {
			return err
		}
		if m.Game.Exit {
			m.Game = nil
			m.State = menu.StateMainMenu
			m.MainMenu.SetStatus("")
			m.RefreshReplays()
		}
	}
	return nil
}

// newGame builds a fresh world with its own session.
func (m *Manager) newGame() *Game {
	seed := m.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	world := simulation.NewWorld(m.Rules, rand.New(rand.NewSource(seed)))
	session := replay.NewSession(world,
		replay.WithLimits(m.Rules.Replay.Limits()),
		replay.WithLogger(m.log),
	)
	g := NewGame(world, session, m.Renderer, m.InputMgr, m.ScreenWidth, m.ScreenHeight, m.TickDelta, m.log)
	g.Store = m.Store
	return g
}

// StartRun begins a live run.
func (m *Manager) StartRun() {
	m.Game = m.newGame()
	m.Game.UpdateCamera()
	m.log.Info("Run started")
}

// OpenReplay loads a stored replay and starts playing it. Leaving playback
// returns to the menu.
func (m *Manager) OpenReplay(path string) error {
	if m.Store == nil {
		return errors.New("no replay store")
	}
	r, err := m.Store.Load(path)
	if err != nil {
		return err
	}

	g := m.newGame()
	if err := g.Session.LoadFrames(r.Frames); err != nil {
		return fmt.Errorf("load frames: %w", err)
	}
	g.ExitOnReplayEnd = true
	g.Session.StartPlayback()
	m.Game = g
	m.log.WithFields(logrus.Fields{
		"id":     r.ID.String(),
		"frames": len(r.Frames),
	}).Info("Replay opened")
	return nil
}

// Draw draws the current state.
func (m *Manager) Draw(screen render.Image) {
	switch m.State {
	case menu.StateMainMenu:
		m.MainMenu.Draw(screen)
	case menu.StatePlaying:
		if m.Game != nil {
			m.Game.Draw(screen)
		}
	}
}

// Layout handles window resize.
func (m *Manager) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != m.ScreenWidth || outsideHeight != m.ScreenHeight {
		m.ScreenWidth = outsideWidth
		m.ScreenHeight = outsideHeight
		m.MainMenu.SetSize(outsideWidth, outsideHeight)
		if m.Game != nil {
			m.Game.Resize(outsideWidth, outsideHeight)
		}
	}
	return outsideWidth, outsideHeight
}
