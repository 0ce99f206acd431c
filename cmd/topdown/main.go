package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"chosenoffset.com/topdown/internal/config"
	"chosenoffset.com/topdown/internal/game"
	ebitenrender "chosenoffset.com/topdown/internal/render/ebiten"
	"chosenoffset.com/topdown/internal/replay/storage"
	"chosenoffset.com/topdown/internal/simulation"
	"chosenoffset.com/topdown/pkg/logger"
)

func main() {
	var replayPath string
	flag.StringVar(&replayPath, "replay", "", "play a saved replay headless and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load config")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Log

	rules, err := simulation.LoadConfig(cfg.RulesFile)
	if err != nil {
		log.WithError(err).WithField("path", cfg.RulesFile).Fatal("Failed to load rules")
	}

	store, err := storage.NewReplayService(cfg.ReplayDir, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open replay directory")
	}

	if replayPath != "" {
		if err := runHeadless(replayPath, store, rules, cfg, log); err != nil {
			log.WithError(err).Fatal("Headless playback failed")
		}
		return
	}

	// Initialize the renderer backend (ebiten)
	renderer := ebitenrender.NewRenderer()
	inputMgr := ebitenrender.NewInputManager()
	engine := ebitenrender.NewEngine()

	gameManager := game.NewManager(renderer, inputMgr, rules, store, cfg.ScreenWidth, cfg.ScreenHeight, cfg.TickDelta(), log)
	gameManager.Seed = cfg.Seed

	// Set up the window
	engine.SetWindowSize(cfg.ScreenWidth, cfg.ScreenHeight)
	engine.SetWindowTitle("Topdown")
	engine.SetWindowResizable(true)
	engine.SetTPS(cfg.TickRate)

	log.WithFields(logrus.Fields{
		"replays": cfg.ReplayDir,
		"rules":   cfg.RulesFile,
	}).Info("Starting game")
	if err := engine.RunGame(gameManager); err != nil {
		log.WithError(err).Fatal("Game exited with error")
	}
}

func runHeadless(path string, store *storage.ReplayService, rules *simulation.Config, cfg config.Config, log *logrus.Logger) error {
	r, err := store.Load(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	world := simulation.NewWorld(rules, rand.New(rand.NewSource(time.Now().UnixNano())))
	start := time.Now()
	stats, err := game.RunHeadless(ctx, r.Frames, world, rules.Replay.Limits(), cfg.TickDelta(), log)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"id":       r.ID.String(),
		"ticks":    stats.Ticks,
		"frames":   stats.Frames,
		"events":   stats.Events,
		"duration": r.Duration(),
		"elapsed":  time.Since(start).String(),
	}).Info("Replay finished")
	return nil
}
