// Package synthesize turns resolved acquisition outcomes into a publishable
// article through a fixed observe, plan, execute, compose pipeline. The
// action set is closed; there is no open-ended planning.
package synthesize

import (
	"fmt"
	"log/slog"

	"github.com/daehan-cho/shopscribe/pkg/models"
)

const maxKeywords = 10

// Synthesizer renders one article per job from the records its acquisition
// stage produced. All phases are deterministic given the same input.
type Synthesizer struct {
	logger *slog.Logger

	// composeFn is swappable in tests to exercise the fallback path.
	composeFn func(facts, []finding) (models.ArticleContent, error)
}

func New(logger *slog.Logger) *Synthesizer {
	s := &Synthesizer{logger: logger}
	s.composeFn = s.compose
	return s
}

// Article runs the four-phase pipeline. Callers must gate on at least one
// resolved outcome; with zero records the result is the fallback article.
func (s *Synthesizer) Article(outcomes []models.AcquisitionOutcome, keyword string) models.ArticleContent {
	f := observe(outcomes, keyword)
	findings := s.execute(plan(), f)

	article, err := s.composeFn(f, findings)
	if err != nil {
		s.logger.Error("article composition failed, using fallback", "error", err)
		return fallbackArticle(f)
	}
	return article
}

func (s *Synthesizer) execute(actions []action, f facts) []finding {
	findings := make([]finding, 0, len(actions))
	for _, a := range actions {
		fd, err := runAction(a, f)
		if err != nil {
			s.logger.Warn("analysis action skipped", "action", a.name, "error", err)
			continue
		}
		findings = append(findings, fd)
	}
	return findings
}

// runAction confines a single action's panic to that action.
func runAction(a action, f facts) (fd finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()
	return a.run(f)
}
