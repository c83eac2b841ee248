// Package lifecycle coordinates process shutdown and health probes.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type hook struct {
	name string
	fn   func(ctx context.Context) error
}

// Shutdown runs cleanup hooks in ordered phases. Hooks within a phase run
// concurrently and a phase starts only after the previous one returned.
type Shutdown struct {
	log *slog.Logger

	mu     sync.Mutex
	phases [][]hook
}

func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}
	return &Shutdown{log: log, phases: make([][]hook, 1)}
}

// Register adds fn to the current phase.
func (s *Shutdown) Register(name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := len(s.phases) - 1
	s.phases[i] = append(s.phases[i], hook{name: name, fn: fn})
}

// NextPhase closes the current phase. Calling it on an empty phase is a no-op.
func (s *Shutdown) NextPhase() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.phases[len(s.phases)-1]) > 0 {
		s.phases = append(s.phases, nil)
	}
}

// Execute runs every phase. A failing hook never stops the others; all
// failures are joined into the returned error, each prefixed with its name.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.mu.Lock()
	phases := make([][]hook, 0, len(s.phases))
	for _, p := range s.phases {
		if len(p) > 0 {
			phases = append(phases, append([]hook(nil), p...))
		}
	}
	s.mu.Unlock()

	start := time.Now()
	s.log.Info("shutdown sequence started", slog.Int("phase_count", len(phases)))

	var errs []error
	for i, p := range phases {
		errs = append(errs, s.runPhase(ctx, i, p)...)
	}

	s.log.Info("shutdown sequence finished", slog.Duration("elapsed", time.Since(start)))
	return errors.Join(errs...)
}

func (s *Shutdown) runPhase(ctx context.Context, phase int, hooks []hook) []error {
	errs := make([]error, len(hooks))

	var wg sync.WaitGroup
	for i, h := range hooks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			log := s.log.With(slog.String("hook", h.name), slog.Int("phase", phase))
			begun := time.Now()
			if err := h.fn(ctx); err != nil {
				log.Error("shutdown hook failed", slog.Any("error", err))
				errs[i] = fmt.Errorf("%s: %w", h.name, err)
				return
			}
			log.Info("shutdown hook completed", slog.Duration("took", time.Since(begun)))
		}()
	}
	wg.Wait()

	// errors.Join skips the nil slots of hooks that succeeded
	return errs
}
