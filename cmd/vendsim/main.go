// Command vendsim runs the vending machine business benchmark: an
// LLM-driven operator managing pricing, restocking and supplier
// correspondence over simulated days.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/vendsim/internal/agent"
	"github.com/talgya/vendsim/internal/config"
	"github.com/talgya/vendsim/internal/engine"
	"github.com/talgya/vendsim/internal/llm"
	"github.com/talgya/vendsim/internal/persistence"
	"github.com/talgya/vendsim/internal/search"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load("")
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	llmClient := llm.NewClient(cfg.AnthropicKey)
	searchClient := search.NewClient(cfg.PerplexityKey)
	if searchClient == nil {
		slog.Warn("PERPLEXITY_API_KEY not set, supplier research will use fallback profiles")
	}

	simCfg := engine.Config{
		Seed:     cfg.Seed,
		Start:    time.Now().UTC(),
		Location: cfg.Location,
		Log:      db,
	}
	if llmClient.Enabled() {
		simCfg.Analyst = llmClient
		simCfg.Supplier = llmClient
	}
	if searchClient != nil {
		simCfg.Search = searchClient
	}

	sim := engine.New(simCfg)

	loop := agent.NewLoop(sim, llmClient, cfg.ContextTokens)

	// An interrupt ends the run; the balance log is append-only so a
	// mid-turn exit leaves the database consistent.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("received signal, finishing current turn", "signal", sig)
			os.Exit(0)
		case <-done:
		}
	}()

	fmt.Printf("Starting simulation %s at %s\n", sim.ID, sim.Now().Format("2006-01-02 15:04 UTC"))

	turns, err := loop.Run(cfg.MaxActions)
	close(done)
	if err != nil {
		slog.Error("run ended early", "turns", turns, "error", err)
	}

	fmt.Printf("\nSimulation finished after %d turns and %d simulated days.\n", turns, sim.DaysPassed())
	fmt.Printf("Final balance: $%s\n", humanize.CommafWithDigits(sim.Balance, 2))

	history, err := db.History(sim.ID)
	if err != nil {
		slog.Error("failed reading history", "error", err)
		return
	}
	fmt.Println("\nSimulation History:")
	for _, row := range history {
		fmt.Printf("%s: $%s\n", row.Timestamp, humanize.CommafWithDigits(row.Balance, 2))
	}
}
