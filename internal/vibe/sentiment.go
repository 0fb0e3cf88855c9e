package vibe

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/neighborlens/neighborlens/pkg/huggingface"
)

// NeutralScore is the sentiment returned when no community text exists
// or the classifier is unreachable.
const NeutralScore = 0.5

// Classifier is the sentiment inference surface Score depends on.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]huggingface.Label, error)
}

// Score averages per-text sentiment over the community corpus, mapping
// positive to 1, neutral to 0.5, and negative to 0. Empty input or an
// unreachable classifier yields the neutral score.
func Score(ctx context.Context, clf Classifier, texts []string) float64 {
	if len(texts) == 0 {
		return NeutralScore
	}

	labels, err := clf.Classify(ctx, texts)
	if err != nil {
		zap.L().Warn("vibe: sentiment classifier unavailable", zap.Error(err))
		return NeutralScore
	}
	if len(labels) == 0 {
		return NeutralScore
	}

	var sum float64
	for _, l := range labels {
		sum += labelScore(l.Name)
	}
	return sum / float64(len(labels))
}

// labelScore maps a classifier label to a scalar. The cardiffnlp models
// emit "positive"/"neutral"/"negative" (or LABEL_2/1/0 aliases), so the
// match is by substring, case-insensitive.
func labelScore(label string) float64 {
	upper := strings.ToUpper(label)
	switch {
	case strings.Contains(upper, "POS"), strings.HasSuffix(upper, "_2"):
		return 1
	case strings.Contains(upper, "NEG"), strings.HasSuffix(upper, "_0"):
		return 0
	default:
		return NeutralScore
	}
}
