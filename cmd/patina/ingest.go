package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/patina-dev/patina/internal/ingest"
	"github.com/patina-dev/patina/internal/ingest/codeparse"
	"github.com/patina-dev/patina/internal/projection"
	"github.com/patina-dev/patina/internal/types"
)

func newIngestCmd() *cobra.Command {
	var (
		root          string
		trainProj     bool
		watch         bool
		watchDebounce string
		cronSpec      string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Scan git history and source under root, materialize facts, derive signals, embed and index",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			if root == "" {
				root, err = os.Getwd()
				if err != nil {
					return err
				}
			}

			if err := ingestGitLog(a, root); err != nil {
				a.logger.Warn("git log ingestion failed", "error", err.Error())
			}
			if err := ingestSourceTree(a, root); err != nil {
				a.logger.Warn("source tree ingestion failed", "error", err.Error())
			}

			driver := ingest.New(ingest.Config{
				Store:     a.store,
				Embedder:  a.pipeline,
				Index:     a.index,
				IndexPath: a.indexPath,
				Logger:    a.logger,
			})

			result, err := driver.Run(cmd.Context())
			if err != nil {
				return err
			}
			a.logger.Info("ingest run complete",
				"facts_materialized", result.FactsMaterialized,
				"embedded", result.Embedded)

			if trainProj {
				if err := trainProjection(a); err != nil {
					a.logger.Warn("projection training failed", "error", err.Error())
				}
			}

			if watch {
				debounce, err := time.ParseDuration(watchDebounce)
				if err != nil {
					debounce = 2 * time.Second
				}
				return driver.Watch(cmd.Context(), root, debounce, cronSpec)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "repository root to scan (default: cwd)")
	cmd.Flags().BoolVar(&trainProj, "train-projection", false, "retrain the embedding projection from accumulated pairs after ingesting")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running, re-running the materialize/derive/embed pass on filesystem change in root and on --watch-cron")
	cmd.Flags().StringVar(&watchDebounce, "watch-debounce", "2s", "debounce window for --watch")
	cmd.Flags().StringVar(&cronSpec, "watch-cron", "", "cron spec for a periodic re-run of that pass under --watch")
	return cmd
}

// ingestGitLog shells out to git log in the NUL/blank-line delimited
// format internal/ingest.ParseGitLog expects; the subprocess is the
// external collaborator spec.md §1 leaves out of scope.
func ingestGitLog(a *app, root string) error {
	out, err := exec.Command("git", "-C", root, "log",
		"--name-only", "--format=%H%x00%an%x00%at%x00%s").Output()
	if err != nil {
		return err
	}
	events, err := ingest.ParseGitLog(string(out))
	if err != nil {
		return err
	}
	_, err = a.store.Append(events)
	return err
}

// ingestSourceTree walks root for .go files (code.function/type/import
// facts) and markdown pattern docs, skipping .git, vendor, node_modules
// and .patina directories.
func ingestSourceTree(a *app, root string) error {
	var allEvents [][]types.Event

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		base := filepath.Base(path)
		if info.IsDir() {
			if base == ".git" || base == "vendor" || base == "node_modules" || base == ".patina" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		src, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		events, parseErr := codeparse.Extract(context.Background(), rel, src)
		if parseErr != nil {
			return nil
		}
		allEvents = append(allEvents, events)
		return nil
	})
	if err != nil {
		return err
	}

	patternDir := filepath.Join(root, "layer")
	if info, statErr := os.Stat(patternDir); statErr == nil && info.IsDir() {
		if events, walkErr := ingest.WalkPatternTree(os.DirFS(root), "layer"); walkErr == nil {
			allEvents = append(allEvents, events)
		}
	}

	for _, events := range allEvents {
		if _, err := a.store.Append(events); err != nil {
			return err
		}
	}
	return nil
}

// trainProjection pulls commit-signal and session-signal weak-supervision
// pairs from the current database and retrains the projection matrix,
// persisting it for subsequent query-time use.
func trainProjection(a *app) error {
	db := a.store.ReadDB()
	fileContent := func(path string) (string, error) {
		data, err := os.ReadFile(path)
		return string(data), err
	}
	commitPairs, err := projection.CommitSignalPairs(db, fileContent, 500)
	if err != nil {
		return err
	}
	sessionPairs, err := projection.SessionSignalPairs(db)
	if err != nil {
		return err
	}
	pairs := append(commitPairs, sessionPairs...)

	cfg := projection.DefaultConfig(embedDim, 128)
	proj, err := projection.Train(ctxEmbedder{a.embedder}, pairs, cfg)
	if err != nil {
		return err
	}
	return projection.Save(db, proj)
}
