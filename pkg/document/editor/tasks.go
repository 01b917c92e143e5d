package editor

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// loadLanguage asks the language loader to prepare lang in the
// background and requests a full render once it is ready.
func (s *Session) loadLanguage(lang string) {
	if s.languages == nil {
		return
	}
	s.tasks.Go(func(ctx context.Context) (func(), error) {
		if err := s.languages.LoadLanguage(ctx, lang); err != nil {
			s.logger.Warn("failed to load language", zap.String("lang", lang), zap.Error(err))
			return nil, errors.Wrapf(err, "load language %q", lang)
		}
		return s.renderer.RequestFullRender, nil
	})
}

// Flush applies the completions of finished background tasks. It must be
// called from the goroutine owning the session.
func (s *Session) Flush() {
	for _, completion := range s.tasks.drain() {
		completion()
	}
}

// Wait waits for all background tasks, applies their completions and
// returns the errors they recovered from.
func (s *Session) Wait() error {
	err := s.tasks.Wait()
	s.Flush()
	return err
}

// Close cancels background tasks. Pending completions are dropped.
func (s *Session) Close() error {
	return s.tasks.Close()
}
