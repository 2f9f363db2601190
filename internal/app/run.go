package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/masonbuild/mason/internal/ctxlog"
	"github.com/masonbuild/mason/internal/depstore"
	"github.com/masonbuild/mason/internal/executor"
	"github.com/masonbuild/mason/internal/fingerprint"
	"github.com/masonbuild/mason/internal/graph"
	"github.com/masonbuild/mason/internal/loader"
	"github.com/masonbuild/mason/internal/toolchain"
	"github.com/masonbuild/mason/internal/variant"
)

// Run dispatches the requested goal: "clean" removes every variant's output
// tree; a variant name selects that variant and builds everything; anything
// else is forwarded into the default variant's engine run as the target to
// build.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	// Environment hints may come from an optional .env at the source root.
	// A missing file is fine.
	if err := godotenv.Load(filepath.Join(a.root, ".env")); err == nil {
		a.logger.Debug("Loaded environment hints from .env file.")
	}

	goal := a.config.Goal
	if goal == "clean" {
		a.logger.Info("Removing all variant output trees.")
		return variant.CleanAll(a.root)
	}
	if goal == "" {
		goal = os.Getenv("MASON_VARIANT")
	}
	debugHint := os.Getenv("MASON_DEBUG") != ""

	v, forward := variant.Select(a.root, goal, debugHint)
	a.logger.Info("Variant selected.", "variant", v.Name, "goal", displayGoal(forward))
	if err := v.EnsureOutDir(); err != nil {
		return err
	}

	tc, err := toolchain.Load(a.root, os.Getenv("MASON_TOOLS"))
	if err != nil {
		return err
	}
	a.logger.Debug("Toolchain resolved.", "cc", tc.CC, "cxx", tc.CXX, "ar", tc.AR)

	desc, err := loader.New().Load(ctx, a.root, v)
	if err != nil {
		return fmt.Errorf("loading build descriptions: %w", err)
	}

	store := depstore.New(v.OutDir)
	records, err := store.LoadAll()
	if err != nil {
		return err
	}
	a.logger.Debug("Dependency records loaded.", "count", len(records))

	sentinels, err := fingerprint.NewOracle(tc).Refresh(ctx, a.root, v, desc)
	if err != nil {
		return err
	}

	g, err := graph.Build(ctx, desc, v, a.root, records, sentinels)
	if err != nil {
		return fmt.Errorf("building target graph: %w", err)
	}
	if forward != "" {
		g, err = g.Subgraph(forward)
		if err != nil {
			return err
		}
	}

	exec := executor.New(g, a.config.WorkerCount, tc, store, v, desc, a.root)
	result, err := exec.Run(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("Build finished.",
		"variant", v.Name, "executed", result.Executed, "up_to_date", result.UpToDate)
	return nil
}

func displayGoal(forward string) string {
	if forward == "" {
		return "everything"
	}
	return forward
}
