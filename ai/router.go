package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"glowfit/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

type RouterConfig struct {
	Timeout           time.Duration // per provider attempt
	MaxConcurrent     int           // 0 = unlimited
	RequestsPerMinute int           // per provider, 0 = unlimited
}

// Router sends a request to the first healthy provider, falling back down the
// list when a provider fails or its breaker is open.
type Router struct {
	providers []Provider
	breakers  *Registry
	limiters  map[string]*rate.Limiter
	sem       *semaphore.Weighted
	timeout   time.Duration
}

func NewRouter(breakers *Registry, cfg RouterConfig, providers ...Provider) *Router {
	r := &Router{
		providers: providers,
		breakers:  breakers,
		limiters:  make(map[string]*rate.Limiter, len(providers)),
		timeout:   cfg.Timeout,
	}
	if r.timeout <= 0 {
		r.timeout = 45 * time.Second
	}
	if cfg.MaxConcurrent > 0 {
		r.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	}
	for _, p := range providers {
		if cfg.RequestsPerMinute > 0 {
			r.limiters[p.Name()] = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute)
		}
		breakers.Get(p.Name())
	}
	return r
}

func (r *Router) Providers() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	return names
}

func (r *Router) Breakers() *Registry { return r.breakers }

func (r *Router) Generate(ctx context.Context, req Request) (*Response, error) {
	if r.sem != nil {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("acquire AI slot: %w", err)
		}
		defer r.sem.Release(1)
	}

	var (
		errs      []error
		attempted int
	)
	for i, p := range r.providers {
		cb := r.breakers.Get(p.Name())
		if err := cb.Allow(); err != nil {
			logger.Warn("AI provider skipped", zap.String("provider", p.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if lim := r.limiters[p.Name()]; lim != nil {
			if err := lim.Wait(ctx); err != nil {
				cb.Release()
				return nil, fmt.Errorf("%s rate limit: %w", p.Name(), err)
			}
		}

		attempted++
		start := time.Now()
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		resp, err := p.Generate(attemptCtx, req)
		cancel()

		if err == nil {
			cb.RecordSuccess()
			resp.Provider = p.Name()
			resp.Fallback = i > 0
			logger.Debug("AI call succeeded",
				zap.String("provider", p.Name()),
				zap.Duration("duration", time.Since(start)),
				zap.Int64("input_tokens", resp.InputTokens),
				zap.Int64("output_tokens", resp.OutputTokens))
			return resp, nil
		}

		if ctx.Err() != nil {
			cb.Release()
			return nil, fmt.Errorf("%s: %w", p.Name(), ctx.Err())
		}
		if countsAsFailure(err) {
			cb.RecordFailure()
		} else {
			// the provider answered, it just refused this request
			cb.RecordSuccess()
		}
		logger.Warn("AI provider failed, falling back",
			zap.String("provider", p.Name()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	if attempted == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoProviders, errors.Join(errs...))
	}
	return nil, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}
