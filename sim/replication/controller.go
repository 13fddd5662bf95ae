// Package replication runs independent facility replications until every
// controlling statistic reaches the requested confidence-interval precision.
package replication

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/facility-sim/facility-sim/sim"
	"github.com/facility-sim/facility-sim/sim/workload"
)

// ErrKernelInvariant wraps a replication aborted by an *sim.InvariantViolation.
var ErrKernelInvariant = errors.New("kernel invariant violated")

// Sink persists replication outcomes. Implementations must be safe to call
// from the controller goroutine only.
type Sink interface {
	SaveReplication(ctx context.Context, runID string, index int, seed int64, stats *sim.ReplicationStats) error
	SaveEstimate(ctx context.Context, est *Estimate) error
}

// SupplyGenerator draws the duration supplies of one replication.
type SupplyGenerator func(cfg workload.Config, rng *sim.PartitionedRNG) (sim.Supplies, error)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for study progress.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Controller) { c.log = log }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithSink persists each replication and the final estimate.
func WithSink(s Sink) Option {
	return func(c *Controller) { c.sink = s }
}

// WithSupplyGenerator replaces workload.GenerateSupplies.
func WithSupplyGenerator(g SupplyGenerator) Option {
	return func(c *Controller) { c.generate = g }
}

// Controller runs a replication study.
type Controller struct {
	cfg      Config
	runID    string
	log      logrus.FieldLogger
	metrics  MetricsRecorder
	sink     Sink
	generate SupplyGenerator
}

// NewController validates cfg and builds a controller with a fresh run ID.
func NewController(cfg Config, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		cfg:      cfg,
		runID:    uuid.NewString(),
		metrics:  NoopMetrics{},
		generate: workload.GenerateSupplies,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	c.log = c.log.WithField("run", c.runID)
	return c, nil
}

// RunID identifies this study in logs and persisted results.
func (c *Controller) RunID() string { return c.runID }

// Run executes replications until the stopping rule holds or
// MaxReplications is reached. A kernel invariant violation in any
// replication aborts the study with an error wrapping ErrKernelInvariant.
func (c *Controller) Run(ctx context.Context) (*Estimate, error) {
	stats := make([]*series, 0)
	index := make(map[string]*series)

	var est *Estimate
	for n := 1; n <= c.cfg.MaxReplications; n++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("study cancelled after %d replications: %w", n-1, err)
		}
		seed := c.cfg.BaseSeed + int64(n-1)
		rs, res, err := c.runOne(n, seed)
		if err != nil {
			reason := "supplies"
			switch {
			case errors.Is(err, ErrKernelInvariant):
				reason = "invariant"
			case errors.Is(err, sim.ErrEmptyWindow):
				reason = "window"
			}
			c.metrics.RecordFailure(ctx, reason)
			return nil, err
		}
		c.metrics.RecordReplication(ctx, res.Elapsed.Minutes(), res.TotalProducts())
		if c.sink != nil {
			if err := c.sink.SaveReplication(ctx, c.runID, n, seed, rs); err != nil {
				return nil, fmt.Errorf("saving replication %d: %w", n, err)
			}
		}

		for _, s := range append(rs.Values(), sim.Stat{Name: "throughput weighted", Value: rs.WeightedThroughput()}) {
			sr, ok := index[s.Name]
			if !ok {
				sr = &series{name: s.Name, controls: s.Controls}
				index[s.Name] = sr
				stats = append(stats, sr)
			}
			sr.values = append(sr.values, s.Value)
		}
		c.log.Infof("replication %d (seed %d): %d products over %v min, weighted throughput %.5f/min",
			n, seed, res.TotalProducts(), res.Elapsed, rs.WeightedThroughput())

		if n < c.cfg.InitialReplications {
			continue
		}
		est = c.estimate(n, stats)
		if est.Converged {
			break
		}
		c.log.Infof("after %d replications: %d more required", n, est.MaxRequired()-n)
	}

	c.metrics.RecordStudy(ctx, est.Replications, est.Converged)
	if !est.Converged {
		c.log.Warnf("stopping at %d replications without reaching ±%v", est.Replications, c.cfg.Precision)
	} else {
		c.log.Infof("converged after %d replications", est.Replications)
	}
	if c.sink != nil {
		if err := c.sink.SaveEstimate(ctx, est); err != nil {
			return nil, fmt.Errorf("saving estimate: %w", err)
		}
	}
	return est, nil
}

// runOne runs a single replication. Kernel invariant violations surface as
// errors instead of panics.
func (c *Controller) runOne(n int, seed int64) (rs *sim.ReplicationStats, res *sim.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, ok := r.(*sim.InvariantViolation)
			if !ok {
				panic(r)
			}
			c.log.Errorf("replication %d (seed %d) aborted: %v", n, seed, v)
			rs, res = nil, nil
			err = fmt.Errorf("replication %d (seed %d): %w: %w", n, seed, ErrKernelInvariant, v)
		}
	}()

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed))
	supplies, err := c.generate(c.cfg.Workload, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("replication %d: generating supplies: %w", n, err)
	}
	f := sim.NewFacility(supplies, rng.ForSubsystem(sim.SubsystemDecision),
		sim.WithLogger(c.log.WithField("replication", n)),
		sim.WithDispatchPolicy(c.cfg.Policy))
	f.Run()
	res = f.Result()

	rs, err = sim.ComputeStats(res, sim.TimeStamp(c.cfg.WarmupMinutes))
	if errors.Is(err, sim.ErrEmptyWindow) {
		return nil, nil, fmt.Errorf("replication %d (seed %d): configuration leaves no observation window "+
			"(warmup %v min, run ended at %v min); lower warmup_minutes or raise components_per_queue: %w",
			n, seed, c.cfg.WarmupMinutes, res.Elapsed, err)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("replication %d (seed %d): %w", n, seed, err)
	}
	return rs, res, nil
}

// estimate applies the stopping rule to the first n replications.
func (c *Controller) estimate(n int, stats []*series) *Estimate {
	est := &Estimate{
		RunID:        c.runID,
		Replications: n,
		Converged:    true,
		Confidence:   c.cfg.Confidence,
		Precision:    c.cfg.Precision,
	}
	for _, s := range stats {
		se := s.summarize(c.cfg.Confidence, c.cfg.Precision)
		if se.Controls && se.Required > float64(n) {
			est.Converged = false
		}
		est.Stats = append(est.Stats, se)
	}
	return est
}
