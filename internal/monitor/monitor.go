// Package monitor implements a single bounty-feed monitoring run: fetch both
// platform feeds, normalize them into assets, diff against the previous
// snapshot, alert on new assets and persist the current asset list.
package monitor

import (
	"bountywatch/internal/config"
	"bountywatch/pkg/domain"
	"bountywatch/pkg/feed"
	"bountywatch/pkg/logger"
	"bountywatch/pkg/metrics"
	"bountywatch/pkg/notify"
	"bountywatch/pkg/serrors"
	"bountywatch/pkg/snapshot"
	"bountywatch/pkg/targets"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configure a monitor.
type Options struct {
	// SnapshotKey names the snapshot inside the store.
	SnapshotKey string
	// Now is the clock used to stamp alerts. Nil means time.Now.
	Now func() time.Time
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		SnapshotKey: cfg.Snapshot.Key,
	}
}

// Deps are the collaborators of a monitor.
type Deps struct {
	HackerOne feed.Source
	Bugcrowd  feed.Source
	Store     snapshot.Store
	Sink      notify.Sink
	// Expander is optional; without it results carry no targets.
	Expander *targets.Expander
	// Metrics is optional.
	Metrics *metrics.Recorder
}

// notifyTask is one pending alert. Tasks run in order and the first failure
// cancels the rest.
type notifyTask struct {
	asset   domain.Asset
	message string
}

type monitor struct {
	options   Options
	deps      Deps
	formatter Formatter
}

// fetch downloads both feeds concurrently and normalizes them, HackerOne
// first. Either feed failing fails the fetch.
func (m *monitor) fetch(ctx context.Context) ([]domain.Asset, error) {
	sources := []feed.Source{m.deps.HackerOne, m.deps.Bugcrowd}
	programs := make([][]domain.Program, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			p, err := src.Programs(gctx)
			if err != nil {
				return fmt.Errorf("could not fetch %s programs: %w", src.Platform(), err)
			}
			programs[i] = p

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.Asset
	for i, src := range sources {
		assets := Normalize(programs[i], src.Platform())
		logger.Debug(ctx, "normalized feed",
			zap.String("platform", string(src.Platform())),
			zap.Int("programs", len(programs[i])),
			zap.Int("assets", len(assets)))
		all = append(all, assets...)
	}

	return all, nil
}

// previous loads the last snapshot. A snapshot that was never written is
// treated as empty; every other failure is returned.
func (m *monitor) previous(ctx context.Context) (domain.Snapshot, error) {
	prev, err := m.deps.Store.Load(ctx, m.options.SnapshotKey)
	if err != nil {
		if errors.Is(err, serrors.ErrNotFound) {
			logger.Info(ctx, "no previous snapshot, starting from empty", zap.String("key", m.options.SnapshotKey))

			return domain.Snapshot{}, nil
		}

		return nil, err
	}

	return prev, nil
}

func (m *monitor) notify(ctx context.Context, tasks []notifyTask) error {
	for i, t := range tasks {
		if err := m.deps.Sink.Send(ctx, t.message); err != nil {
			return fmt.Errorf("could not notify asset %q (%d of %d): %w", t.asset.Asset, i+1, len(tasks), err)
		}
		logger.Info(ctx, "notified new asset",
			zap.String("asset", t.asset.Asset),
			zap.String("program", t.asset.Program),
			zap.String("platform", string(t.asset.Platform)))
	}

	return nil
}

func (m *monitor) run(ctx context.Context) (Result, error) {
	current, err := m.fetch(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("could not fetch feeds: %w", err)
	}

	prev, err := m.previous(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("could not load snapshot: %w", err)
	}

	newAssets := Diff(current, prev)
	logger.Info(ctx, "diffed assets",
		zap.Int("current", len(current)),
		zap.Int("previous", len(prev)),
		zap.Int("new", len(newAssets)))

	tasks := lo.Map(newAssets, func(a domain.Asset, _ int) notifyTask {
		return notifyTask{asset: a, message: m.formatter.Format(a)}
	})
	if err := m.notify(ctx, tasks); err != nil {
		return Result{}, err
	}

	if err := m.deps.Store.Save(ctx, m.options.SnapshotKey, current); err != nil {
		return Result{}, fmt.Errorf("could not save snapshot: %w", err)
	}

	found := []targets.Target{}
	if m.deps.Expander != nil {
		found = m.deps.Expander.ExpandAll(newAssets)
	}

	return Result{New: len(newAssets), Total: len(current), Targets: found}, nil
}

// Run performs one monitoring run. Steps run strictly in order and the first
// failing step ends the run: nothing is persisted unless every alert was sent.
func (m *monitor) Run(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	ctx = logger.WithFields(ctx, zap.String("run_id", runID))
	start := time.Now()
	res, err := m.run(ctx)
	if err != nil {
		m.deps.Metrics.RunFailed(ctx, time.Since(start))

		return Result{}, err
	}
	res.RunID = runID
	m.deps.Metrics.RunSucceeded(ctx, res.New, res.Total, time.Since(start))
	logger.Info(ctx, "run completed", zap.Int("new", res.New), zap.Int("total", res.Total))

	return res, nil
}

// New creates a Monitor from its collaborators.
func New(deps Deps, options Options) Monitor {
	return &monitor{
		options:   options,
		deps:      deps,
		formatter: NewFormatter(options.Now),
	}
}
