package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/Garsondee/Simulant/internal/config"
	"github.com/Garsondee/Simulant/internal/game"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config file (watched for tunable changes)")
	debug := flag.Bool("debug", false, "development logging")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Log.Debug || *debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	g, err := game.New(cfg, *cfgPath, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer g.Close()

	w, h := g.Layout(0, 0)
	ebiten.SetWindowTitle("Simulant")
	ebiten.SetWindowSize(w, h)
	ebiten.SetTPS(cfg.Sim.TickRate)
	logger.Info("starting",
		zap.Int("cols", g.Sim().Grid().Cols()),
		zap.Int("rows", g.Sim().Grid().Rows()),
		zap.Int("tps", cfg.Sim.TickRate))
	if err := ebiten.RunGame(g); err != nil {
		logger.Error("game exited", zap.Error(err))
	}
}
