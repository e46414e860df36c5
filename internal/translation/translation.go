package translation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	langpkg "opendub/internal/language"
	"opendub/internal/logging"
	"opendub/internal/parallel"
	"opendub/internal/services"
	"opendub/internal/utterance"
)

// DefaultAttempts applies when Options.Attempts is unset.
const DefaultAttempts = 3

// Pair is a supported source/target combination in ISO 639-3.
type Pair struct {
	Source string
	Target string
}

// Engine translates text between two languages given as ISO 639-3 codes.
type Engine interface {
	Name() string
	Translate(ctx context.Context, text, source, target string) (string, error)
	Pairs(ctx context.Context) ([]Pair, error)
}

// Options tunes retries and concurrency.
type Options struct {
	Attempts   int
	RetryDelay time.Duration
	Workers    int
	// RequestsPerMinute caps engine calls across all workers; zero is
	// unlimited.
	RequestsPerMinute int
}

// Service translates utterance lists through an Engine.
type Service struct {
	engine  Engine
	opts    Options
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewService constructs a translation service.
func NewService(engine Engine, opts Options, logger *slog.Logger) *Service {
	if opts.Attempts < 1 {
		opts.Attempts = DefaultAttempts
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	svc := &Service{
		engine: engine,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "translation"),
	}
	if opts.RequestsPerMinute > 0 {
		svc.limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60), 1)
	}
	return svc
}

// Engine returns the configured engine.
func (s *Service) Engine() Engine { return s.engine }

// SupportsPair reports whether the engine lists the source/target pair.
func (s *Service) SupportsPair(ctx context.Context, source, target string) (bool, error) {
	pairs, err := s.engine.Pairs(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range pairs {
		if langpkg.Equal(p.Source, source) && langpkg.Equal(p.Target, target) {
			return true, nil
		}
	}
	return false, nil
}

// Translate returns text translated from source to target. Empty text yields
// an empty result without calling the engine. Failures are retried with a
// fixed delay; exhausting the attempts returns an error wrapping
// services.ErrTransient.
func (s *Service) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	var lastErr error
	for attempt := 1; attempt <= s.opts.Attempts; attempt++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}
		translated, err := s.engine.Translate(ctx, text, source, target)
		if err == nil {
			return strings.TrimSpace(translated), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt == s.opts.Attempts {
			break
		}
		logging.WarnWithContext(s.logger, "translation attempt failed, retrying", "translation_retry",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", s.opts.Attempts),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check translation engine availability"),
			logging.String(logging.FieldImpact, "translation delayed"),
		)
		if err := sleep(ctx, s.opts.RetryDelay); err != nil {
			return "", err
		}
	}
	return "", services.Wrap(services.ErrTransient, "translation", s.engine.Name(),
		fmt.Sprintf("translation failed after %d attempts", s.opts.Attempts), lastErr)
}

// TranslateUtterances fills TranslatedText for every utterance, preserving
// order. The first unrecoverable failure aborts the stage.
func (s *Service) TranslateUtterances(ctx context.Context, utterances []utterance.Utterance, source, target string) ([]utterance.Utterance, error) {
	out := utterance.Clone(utterances)
	errs := make([]error, len(out))
	err := parallel.ForEach(ctx, len(out), s.opts.Workers, func(ctx context.Context, i int) {
		translated, err := s.Translate(ctx, out[i].Text, source, target)
		if err != nil {
			errs[i] = err
			return
		}
		out[i].TranslatedText = translated
		s.logger.Debug("translated utterance",
			logging.Int("index", i),
			logging.String("text", out[i].Text),
			logging.String("translated_text", translated),
		)
	})
	if err != nil {
		return nil, err
	}
	for _, e := range errs {
		if e != nil {
			return nil, e
		}
	}
	return out, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
