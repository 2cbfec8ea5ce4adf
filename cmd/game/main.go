package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kereth/troubles-sim/internal/config"
	"github.com/kereth/troubles-sim/internal/content"
	"github.com/kereth/troubles-sim/internal/engine"
	"github.com/kereth/troubles-sim/internal/narrator"
	"github.com/kereth/troubles-sim/internal/rng"
	"github.com/kereth/troubles-sim/internal/stats"
	"github.com/kereth/troubles-sim/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	catalog, err := content.Load(cfg.DataDir)
	if err != nil {
		fmt.Printf("Error loading game content: %v\n", err)
		os.Exit(1)
	}

	src := rng.New()

	var narr narrator.Narrator = &narrator.Local{Rand: src}
	if cfg.GeminiAPIKey != "" {
		gem, err := narrator.NewGemini(ctx, cfg.GeminiAPIKey, src)
		if err != nil {
			fmt.Printf("Error creating narrator: %v\n", err)
			os.Exit(1)
		}
		defer gem.Close()
		narr = gem
	}

	sink := tui.NewSink()
	eng := engine.New(catalog, engine.Options{
		Sink:        sink,
		Rand:        src,
		Narrator:    narr,
		Accumulator: stats.New(filepath.Join(cfg.SaveDir, "lifetime.yaml"), nil),
		SaveDir:     cfg.SaveDir,
	})

	if err := tui.Run(eng, sink); err != nil {
		fmt.Printf("Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
