package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chronoweave/chrono-core-go/internal/config"
	"github.com/chronoweave/chrono-core-go/internal/game"
	"github.com/chronoweave/chrono-core-go/internal/game/events"
	"github.com/chronoweave/chrono-core-go/internal/game/modifier"
)

var (
	configPath = flag.String("config", "", "path to configuration file (defaults apply when empty)")
	turns      = flag.Int("turns", 6, "number of full turns to simulate")
	rewindAt   = flag.Int("rewind-at", 4, "turn on which to trigger a chrono-loop rewind (0 disables)")
	seed       = flag.Int64("seed", 1, "seed for the memory decay random source")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting chrono-loop simulation",
		zap.String("version", version),
		zap.String("config", *configPath),
		zap.Int("turns", *turns),
		zap.Int("rewind_at", *rewindAt),
	)

	catalog := builtinCatalog()
	opponent := &scriptedOpponent{logger: logger}
	kernel, err := game.NewKernel(cfg, logger, opponent, catalog)
	if err != nil {
		logger.Fatal("failed to construct kernel", zap.Error(err))
	}
	opponent.state = kernel.State()
	kernel.Memory().SetRandSource(rand.New(rand.NewSource(*seed)).Float64)

	// Mirror kernel events to the log for the transcript.
	kernel.Events().Subscribe(func(e events.Event) {
		logger.Info("event",
			zap.String("type", string(e.Type)),
			zap.Int("turn", e.Turn),
			zap.String("phase", e.Phase),
			zap.String("item", e.ItemName),
		)
	})

	kernel.State().Deck = catalog.deck()
	kernel.Start()

	if _, err := kernel.RememberItem("keepsake", true); err != nil {
		logger.Warn("failed to seed memory", zap.Error(err))
	}

	rewound := false
	for kernel.State().Turn <= *turns {
		turn := kernel.State().Turn

		if *rewindAt > 0 && turn == *rewindAt && !rewound {
			rewound = true
			if err := kernel.Loop().Initiate(); err != nil {
				logger.Warn("rewind unavailable", zap.Error(err))
			} else {
				logger.Info("rewind initiated",
					zap.Int("target_turn", kernel.Loop().TargetTurn()),
					zap.Int("remaining", kernel.Loop().Remaining()),
				)
				kernel.Tick()
				kernel.Loop().End()
			}
		}

		playHand(kernel, logger)
		kernel.EndMainPhase()
		kernel.Tick()

		if kernel.State().Turn == turn {
			// The phase machine stalled; nothing left to drive.
			break
		}
	}

	state := kernel.State()
	logger.Info("simulation complete",
		zap.Int("turn", state.Turn),
		zap.Int("player_health", state.PlayerHealth),
		zap.Int("enemy_health", state.EnemyHealth),
		zap.Float64("entropy_meter", state.EntropyMeter),
		zap.Int("active_rules", len(state.ActiveRules)),
		zap.Int("memory_slots", kernel.Memory().Len()),
		zap.Int("snapshots", kernel.Snapshots().Len()),
		zap.String("checksum", state.Checksum()),
	)
}

// playHand plays everything affordable from the hand during the main
// phase, cheapest first.
func playHand(kernel *game.Kernel, logger *zap.Logger) {
	hand := kernel.State().Hand
	for _, item := range hand {
		if item.Playable(kernel.State()) {
			logger.Debug("playing item", zap.String("item", item.Name), zap.Int("cost", item.Cost))
			kernel.PlayItem(item.Name)
		}
	}
	kernel.Tick()
}

// scriptedOpponent chips away at the player every enemy turn.
type scriptedOpponent struct {
	logger *zap.Logger
	state  *game.GameState
}

func (o *scriptedOpponent) TakeTurn() {
	if o.state != nil {
		o.state.PlayerHealth -= 2
	}
	o.logger.Debug("enemy turn taken")
}

// simCatalog is the built-in item set for the simulation.
type simCatalog map[string]*game.Item

func (c simCatalog) Lookup(name string) (*game.Item, bool) {
	proto, ok := c[name]
	if !ok {
		return nil, false
	}
	return proto.Clone(), true
}

// deck deals a fixed opening run of catalog items.
func (c simCatalog) deck() []*game.Item {
	var out []*game.Item
	for _, name := range []string{"spark", "axiom", "spark", "fracture", "spark", "edict", "spark", "spark"} {
		if item, ok := c.Lookup(name); ok {
			out = append(out, item)
		}
	}
	return out
}

func builtinCatalog() simCatalog {
	spark := game.NewItem("spark", game.KindStandard, 1).WithEffect(func(s *game.GameState) {
		s.EnemyHealth -= 3
	})

	axiom := game.NewItem("axiom", game.KindRule, 2)
	axiom.Rule = &modifier.Rule{
		Name:         "axiom",
		Priority:     1,
		Contribution: 8,
		Effects: []modifier.Effect{
			{Name: "damage", Target: "enemy", Op: modifier.OpMultiply, Magnitude: 1.5},
		},
	}

	edict := game.NewItem("edict", game.KindRule, 2)
	edict.Priority = 3
	edict.Rule = &modifier.Rule{
		Name:         "edict",
		Priority:     3,
		Contribution: 6,
		Effects: []modifier.Effect{
			{Name: "draw", Target: "player", Op: modifier.OpAdd, Magnitude: 1},
		},
	}

	fracture := game.NewItem("fracture", game.KindParadox, 3).WithEffect(func(s *game.GameState) {
		s.EnemyHealth -= 6
		s.EntropyMeter += 4
	})

	keepsake := game.NewItem("keepsake", game.KindStandard, 0)

	return simCatalog{
		"spark":    spark,
		"axiom":    axiom,
		"edict":    edict,
		"fracture": fracture,
		"keepsake": keepsake,
	}
}

// initLogger builds the zap logger from configuration.
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
