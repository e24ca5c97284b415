package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/backend-kitshop/internal/lock"
	"github.com/noah-isme/backend-kitshop/internal/obs"
	"github.com/noah-isme/backend-kitshop/internal/pricing"
)

// ErrUnavailable is returned when no catalog snapshot can be produced.
var ErrUnavailable = errors.New("catalog unavailable")

// Service produces catalog snapshots from a Source behind a Redis cache.
type Service struct {
	source  Source
	cache   *Cache
	logger  zerolog.Logger
	timeout time.Duration
	locker  lock.Locker
	group   singleflight.Group
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Source Source
	Cache  *Cache
	Logger zerolog.Logger
	// LoadTimeout bounds a full load from the source. Zero means no bound.
	LoadTimeout time.Duration
	// Locker, when set, lets one API instance refill the shared cache at a time.
	Locker lock.Locker
}

// NewService constructs a catalog Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Source == nil {
		return nil, errors.New("catalog: source is required")
	}
	return &Service{
		source:  cfg.Source,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
		timeout: cfg.LoadTimeout,
		locker:  cfg.Locker,
	}, nil
}

// Snapshot returns the current catalog. Cache failures are logged and bypassed.
// Concurrent misses share one load from the source.
func (s *Service) Snapshot(ctx context.Context) (pricing.Catalog, error) {
	var cached pricing.Catalog
	hit, err := s.cache.GetJSON(ctx, SnapshotCacheKey, &cached)
	switch {
	case err != nil:
		countCache("error")
		s.logger.Warn().Err(err).Msg("catalog cache read failed")
	case hit:
		countCache("hit")
		return cached, nil
	default:
		countCache("miss")
	}

	v, err, _ := s.group.Do(SnapshotCacheKey, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		if s.timeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, s.timeout)
			defer cancel()
		}
		return s.refill(loadCtx)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("catalog load failed")
		return pricing.Catalog{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v.(pricing.Catalog), nil
}

// Invalidate drops the cached snapshot so the next call reloads from the source.
func (s *Service) Invalidate(ctx context.Context) error {
	s.group.Forget(SnapshotCacheKey)
	return s.cache.Delete(ctx, SnapshotCacheKey)
}

// refill loads the catalog and writes it to the cache. With a locker the work
// runs under refillLockKey and the cache is re-read first, since another instance
// may have filled it while this one waited. Waiting for the lock is bounded by
// half the load timeout; past that the instance loads on its own.
func (s *Service) refill(ctx context.Context) (pricing.Catalog, error) {
	if !s.locker.Enabled() {
		return s.loadAndStore(ctx)
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.lockWait())
	defer cancel()

	var (
		catalog pricing.Catalog
		ran     bool
	)
	err := s.locker.WithLock(waitCtx, refillLockKey, s.lockTTL(), func(context.Context) error {
		ran = true
		if hit, err := s.cache.GetJSON(ctx, SnapshotCacheKey, &catalog); err == nil && hit {
			return nil
		}
		var err error
		catalog, err = s.loadAndStore(ctx)
		return err
	})
	if err != nil && !ran {
		s.logger.Warn().Err(err).Msg("catalog refill lock unavailable")
		return s.loadAndStore(ctx)
	}
	return catalog, err
}

func (s *Service) lockWait() time.Duration {
	if s.timeout > 0 {
		return s.timeout / 2
	}
	return 5 * time.Second
}

func (s *Service) lockTTL() time.Duration {
	if s.timeout > 0 {
		return s.timeout + time.Second
	}
	return 30 * time.Second
}

func (s *Service) loadAndStore(ctx context.Context) (pricing.Catalog, error) {
	catalog, err := s.load(ctx)
	if err != nil {
		return pricing.Catalog{}, err
	}
	if err := s.cache.SetJSON(ctx, SnapshotCacheKey, catalog); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache write failed")
	}
	return catalog, nil
}

func (s *Service) load(ctx context.Context) (pricing.Catalog, error) {
	start := time.Now()
	var catalog pricing.Catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		catalog.ShirtTypes, err = s.source.ShirtTypes(gctx)
		return err
	})
	g.Go(func() (err error) {
		catalog.Packs, err = s.source.Packs(gctx)
		return err
	})
	g.Go(func() (err error) {
		catalog.Patches, err = s.source.Patches(gctx)
		return err
	})
	g.Go(func() (err error) {
		catalog.Configs, err = s.source.PricingConfigs(gctx)
		return err
	})
	err := g.Wait()
	observeLoad(time.Since(start), err)
	if err != nil {
		return pricing.Catalog{}, err
	}
	s.logger.Info().
		Int("shirt_types", len(catalog.ShirtTypes)).
		Int("packs", len(catalog.Packs)).
		Int("patches", len(catalog.Patches)).
		Int("pricing_configs", len(catalog.Configs)).
		Dur("took", time.Since(start)).
		Msg("catalog loaded")
	return catalog, nil
}

func countCache(result string) {
	if obs.CatalogCacheTotal != nil {
		obs.CatalogCacheTotal.WithLabelValues(result).Inc()
	}
}

func observeLoad(d time.Duration, err error) {
	if obs.CatalogLoadDuration == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.CatalogLoadDuration.WithLabelValues(result).Observe(d.Seconds())
}
