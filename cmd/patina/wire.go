package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/patina-dev/patina/internal/config"
	"github.com/patina-dev/patina/internal/embed"
	"github.com/patina-dev/patina/internal/logging"
	"github.com/patina-dev/patina/internal/mothership"
	"github.com/patina-dev/patina/internal/oracle"
	"github.com/patina-dev/patina/internal/projection"
	"github.com/patina-dev/patina/internal/query"
	"github.com/patina-dev/patina/internal/storage/sqlite"
	"github.com/patina-dev/patina/internal/vectorindex"
)

const embedDim = 384

// ctxEmbedder adapts internal/embed's context-taking Embed to the
// context-free shape internal/projection's Trainer expects, since the
// trainer runs a tight offline SGD loop with no per-call cancellation
// need.
type ctxEmbedder struct{ e *embed.Embedder }

func (c ctxEmbedder) Embed(text string) ([]float32, error) {
	return c.e.Embed(context.Background(), text)
}

// app bundles the handles every subcommand wires against, opened once
// per invocation and closed on return.
type app struct {
	store     *sqlite.Store
	embedder  *embed.Embedder
	index     *vectorindex.Index
	indexPath string
	pipeline  *query.Pipeline
	logger    logging.Logger
}

func dbPath() (string, error) {
	if flagDB != "" {
		return flagDB, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, ".patina", "local", "data", "patina.db"), nil
}

func openApp() (*app, error) {
	path, err := dbPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	store, err := sqlite.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("opening patina.db: %w", err)
	}

	logger := newLogger()

	dim := config.GetInt("embed.dim")
	if dim == 0 {
		dim = embedDim
	}
	embedder := embed.New(dim)
	if modelPath := config.GetString("embed.model-path"); modelPath != "" {
		if err := embedder.LoadModel(context.Background(), modelPath); err != nil {
			logger.Warn("embed model failed to load, falling back to deterministic pseudo-embedding", "error", err.Error())
		}
	}

	proj, err := projection.Load(store.ReadDB())
	if err != nil {
		logger.Warn("loading trained projection failed, using identity", "error", err.Error())
	}

	indexPath := filepath.Join(filepath.Dir(path), "vectors.bin")
	index, err := vectorindex.Load(indexPath)
	if err != nil {
		outDim := dim
		if proj.DOut > 0 {
			outDim = proj.DOut
		}
		index = vectorindex.New(outDim)
	}

	pipeline := query.NewPipeline(embedder, proj)

	return &app{
		store:     store,
		embedder:  embedder,
		index:     index,
		indexPath: indexPath,
		pipeline:  pipeline,
		logger:    logger,
	}, nil
}

func (a *app) close() {
	_ = a.store.Close()
}

// buildEngine wires all six oracles and the structural annotator into a
// Query Engine, using the project's own database for every oracle
// except Persona, which crosses into the mothership registry's
// per-project databases instead. If only is non-empty, every oracle
// whose name isn't in it is left out entirely, for bench's per-oracle
// ablation runs.
func (a *app) buildEngine(only ...string) (*query.Engine, error) {
	db := a.store.ReadDB()

	oracles := map[string]oracle.Oracle{
		"lexical":    oracle.NewLexical(db),
		"structural": oracle.NewStructural(db),
		"temporal":   oracle.NewTemporal(db),
		"semantic":   oracle.NewSemantic(a.pipeline, a.index, db),
		"commits":    oracle.NewCommits(a.pipeline, a.index, db),
	}

	if persona, err := a.buildPersonaOracle(); err != nil {
		a.logger.Warn("persona oracle unavailable", "error", err.Error())
	} else if persona != nil {
		oracles["persona"] = persona
	}

	if len(only) > 0 {
		keep := make(map[string]bool, len(only))
		for _, name := range only {
			keep[name] = true
		}
		for name := range oracles {
			if !keep[name] {
				delete(oracles, name)
			}
		}
	}

	weights := config.OracleWeights()
	deadline := config.GetDuration("query.deadline")

	return query.New(query.Config{
		Oracles:         oracles,
		Structural:      oracle.NewStructural(db),
		WeightOverrides: weights,
		Deadline:        deadline,
	}), nil
}

// buildPersonaOracle opens the cross-project mothership registry and,
// if the current project is registered there, points Persona at its
// database; unregistered projects simply run without a persona oracle.
func (a *app) buildPersonaOracle() (*oracle.Persona, error) {
	dir, err := mothership.Dir()
	if err != nil {
		return nil, err
	}
	reg, err := mothership.Open(dir)
	if err != nil {
		return nil, err
	}
	projectName := config.GetString("project-name")
	if projectName == "" {
		cwd, _ := os.Getwd()
		projectName = filepath.Base(cwd)
	}
	personaDB, err := reg.OpenProjectDB(projectName)
	if err != nil || personaDB == nil {
		return nil, err
	}
	return oracle.NewPersona(a.pipeline, a.index, personaDB), nil
}
