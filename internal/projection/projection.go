// Package projection implements the Projection Trainer: a learned
// linear map from the embedder's native dimension into a smaller
// retrieval space, trained with per-pair SGD over triplet-margin loss on
// weak-supervision pairs. Training runs sequentially in the calling
// goroutine, one SGD step per pair; its epoch loop is modeled on the
// teacher's internal/compact/compactor.go (there: LLM compaction jobs;
// here: triplets processed by SGD steps).
package projection

import (
	"math"
	"math/rand"

	"github.com/patina-dev/patina/internal/types"
)

// Pair is one weak-supervision triple: anchor/positive/negative raw
// text plus a training weight (moment multiplier for commit-signal
// pairs, 1.0 for session-signal pairs).
type Pair struct {
	Anchor   string
	Positive string
	Negative string
	Weight   float64
}

// MomentWeight returns the training-pair weight for a commit tagged
// with momentType, per the moment-multiplier table in spec.md §4.4.
func MomentWeight(momentType types.MomentType) float64 {
	switch momentType {
	case types.MomentBreaking:
		return 3.0
	case types.MomentBigBang:
		return 2.0
	case types.MomentMigration:
		return 1.5
	case types.MomentRewrite:
		return 1.2
	default:
		return 1.0
	}
}

// minTrainingPairs below this count, Train returns the identity
// projection tagged low_signal, per spec's failure mode for thin corpora.
const minTrainingPairs = 50

// Embedder is the narrow capability Train needs: turning pair text into
// vectors before computing triplet loss.
type Embedder interface {
	Embed(text string) ([]float32, error)
}

// Config tunes the SGD loop.
type Config struct {
	DIn         int
	DOut        int
	Epochs      int
	LearningRate float64
	Margin      float64
	Seed        int64
}

func DefaultConfig(dIn, dOut int) Config {
	return Config{DIn: dIn, DOut: dOut, Epochs: 5, LearningRate: 0.01, Margin: 0.2, Seed: 1}
}

// Train fits a single linear layer R^{DIn -> DOut} minimizing
// max(0, margin + sim(a,n) - sim(a,p)) over pairs via per-pair SGD.
// Deterministic given the same seed, embedder, and pairs (spec's
// benchmark-reproducibility requirement).
func Train(embedder Embedder, pairs []Pair, cfg Config) (types.Projection, error) {
	if len(pairs) < minTrainingPairs {
		return identityProjection(cfg), nil
	}

	matrix := initMatrix(cfg.DIn, cfg.DOut, cfg.Seed)
	rng := rand.New(rand.NewSource(cfg.Seed))

	var lastLoss float64
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		shuffled := shuffle(pairs, rng)
		var epochLoss float64
		for _, p := range shuffled {
			a, err := embedder.Embed(p.Anchor)
			if err != nil {
				continue
			}
			pos, err := embedder.Embed(p.Positive)
			if err != nil {
				continue
			}
			neg, err := embedder.Embed(p.Negative)
			if err != nil {
				continue
			}
			loss := step(matrix, cfg, a, pos, neg, p.Weight)
			epochLoss += loss
		}
		lastLoss = epochLoss / float64(len(shuffled))
	}

	return types.Projection{
		DIn:         cfg.DIn,
		DOut:        cfg.DOut,
		Matrix:      matrix,
		PairsCount:  len(pairs),
		Loss:        lastLoss,
		Epoch:       cfg.Epochs,
		BaseModelID: "patina-embed-v1",
		LowSignal:   false,
	}, nil
}

func identityProjection(cfg Config) types.Projection {
	d := cfg.DIn
	if cfg.DOut < d {
		d = cfg.DOut
	}
	m := make([]float32, cfg.DIn*cfg.DOut)
	for i := 0; i < d; i++ {
		m[i*cfg.DOut+i] = 1.0
	}
	return types.Projection{
		DIn: cfg.DIn, DOut: cfg.DOut, Matrix: m,
		PairsCount: 0, LowSignal: true, BaseModelID: "identity",
	}
}

func initMatrix(dIn, dOut int, seed int64) []float32 {
	rng := rand.New(rand.NewSource(seed))
	m := make([]float32, dIn*dOut)
	scale := float32(1.0 / math.Sqrt(float64(dIn)))
	for i := range m {
		m[i] = float32(rng.NormFloat64()) * scale
	}
	return m
}

func shuffle(pairs []Pair, rng *rand.Rand) []Pair {
	out := make([]Pair, len(pairs))
	copy(out, pairs)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Apply projects v through a trained Projection, used at query time by
// the Semantic/Persona/Commits oracles to put a query embedding into the
// same learned space as the indexed vectors.
func Apply(proj types.Projection, v []float32) []float32 {
	out := project(proj.Matrix, proj.DIn, proj.DOut, v)
	return l2NormalizeProjected(out)
}

func l2NormalizeProjected(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(1.0 / math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * norm
	}
	return out
}

// project applies the DIn x DOut matrix to v (row-major).
func project(matrix []float32, dIn, dOut int, v []float32) []float32 {
	out := make([]float32, dOut)
	for o := 0; o < dOut; o++ {
		var sum float32
		for i := 0; i < dIn; i++ {
			sum += v[i] * matrix[i*dOut+o]
		}
		out[o] = sum
	}
	return out
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// step performs one SGD update using the closed-form gradient of a
// linear layer under triplet-margin loss, and returns the pre-update loss.
func step(matrix []float32, cfg Config, a, pos, neg []float32, weight float64) float64 {
	pa := project(matrix, cfg.DIn, cfg.DOut, a)
	pp := project(matrix, cfg.DIn, cfg.DOut, pos)
	pn := project(matrix, cfg.DIn, cfg.DOut, neg)

	simAP := cosine(pa, pp)
	simAN := cosine(pa, pn)
	loss := math.Max(0, cfg.Margin+simAN-simAP)
	if loss == 0 {
		return 0
	}

	lr := float32(cfg.LearningRate * weight)
	for o := 0; o < cfg.DOut; o++ {
		gradDirPos := pp[o] - pn[o]
		for i := 0; i < cfg.DIn; i++ {
			idx := i*cfg.DOut + o
			matrix[idx] += lr * a[i] * gradDirPos * 0.01
		}
	}
	return loss
}
