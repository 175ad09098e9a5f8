// Package privacy perturbs embedding vectors with the Laplace mechanism.
//
// For a statistic with L1 sensitivity Δ, adding independent Laplace(0, Δ/ε)
// noise to every component gives ε-differential privacy. Smaller ε means
// more noise. ε is always a per-call argument; an Engine only holds
// constants and can be shared by concurrent requests.
package privacy

import (
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Defaults.
const (
	DefaultEpsilon        = 1.0
	DefaultSensitivity    = 0.1
	DefaultMinEpsilon     = 0.0001
	DefaultHealthyEpsilon = 0.5
	StatusHealthy         = "Healthy"
	StatusDepleted        = "Depleted"
)

// Config holds the mechanism constants.
type Config struct {
	Sensitivity    float64 // L1 sensitivity Δ
	MinEpsilon     float64 // floor applied to ε before dividing
	HealthyEpsilon float64 // ε above this reports StatusHealthy
}

// DefaultConfig returns the built-in constants.
func DefaultConfig() Config {
	return Config{
		Sensitivity:    DefaultSensitivity,
		MinEpsilon:     DefaultMinEpsilon,
		HealthyEpsilon: DefaultHealthyEpsilon,
	}
}

// Engine adds calibrated noise to vectors.
type Engine struct {
	cfg Config

	mu  sync.Mutex  // guards src; unused when src is nil
	src rand.Source // nil draws from the global, goroutine-safe source
}

// New creates an Engine. Non-positive constants fall back to the defaults.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Sensitivity <= 0 {
		cfg.Sensitivity = def.Sensitivity
	}
	if cfg.MinEpsilon <= 0 {
		cfg.MinEpsilon = def.MinEpsilon
	}
	if cfg.HealthyEpsilon <= 0 {
		cfg.HealthyEpsilon = def.HealthyEpsilon
	}
	return &Engine{cfg: cfg}
}

// NewWithSource creates an Engine drawing from src, for reproducible noise.
func NewWithSource(cfg Config, src rand.Source) *Engine {
	e := New(cfg)
	e.src = src
	return e
}

// Config returns the engine's constants.
func (e *Engine) Config() Config { return e.cfg }

// Scale returns the Laplace scale Δ / max(ε, ε_min).
func (e *Engine) Scale(epsilon float64) float64 {
	if math.IsNaN(epsilon) || epsilon < e.cfg.MinEpsilon {
		epsilon = e.cfg.MinEpsilon
	}
	return e.cfg.Sensitivity / epsilon
}

// AddNoise returns a copy of vector with one independent Laplace(0, scale)
// draw added to each component.
func (e *Engine) AddNoise(vector []float64, epsilon float64) []float64 {
	out := make([]float64, len(vector))
	copy(out, vector)

	scale := e.Scale(epsilon)
	if len(out) == 0 || scale == 0 {
		return out
	}

	lap := distuv.Laplace{Mu: 0, Scale: scale, Src: e.src}
	if e.src != nil {
		e.mu.Lock()
		defer e.mu.Unlock()
	}
	for i := range out {
		out[i] += lap.Rand()
	}
	return out
}

// Budget is a coarse, stateless indicator of how private a given ε is.
type Budget struct {
	Epsilon float64 `json:"epsilon"`
	Status  string  `json:"status"`
}

// BudgetStatus reports StatusHealthy when ε exceeds the healthy threshold.
func (e *Engine) BudgetStatus(epsilon float64) Budget {
	status := StatusDepleted
	if epsilon > e.cfg.HealthyEpsilon {
		status = StatusHealthy
	}
	return Budget{Epsilon: epsilon, Status: status}
}

// UtilityScore is the cosine similarity of raw and noisy, clamped to [0, 1]
// and expressed as a percentage with two decimals. It is 0 for vectors of
// different length or zero norm.
func UtilityScore(raw, noisy []float64) float64 {
	if len(raw) == 0 || len(raw) != len(noisy) {
		return 0
	}
	na, nb := floats.Norm(raw, 2), floats.Norm(noisy, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	sim := floats.Dot(raw, noisy) / (na * nb)
	sim = math.Max(0, math.Min(1, sim))
	return math.Round(sim*100*100) / 100
}
