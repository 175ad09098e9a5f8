package sanitize

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// EntityModel labels spans in a text. Offsets in the returned findings are
// byte offsets into text. Implementations must be safe for concurrent use:
// one handle is built at startup and shared by every request.
type EntityModel interface {
	Predict(ctx context.Context, text string, labels []string, threshold float64) ([]Finding, error)
}

// MultiModel runs several models on the same text and concatenates their
// findings in model order. A failing model contributes nothing; the others
// are still used.
type MultiModel []EntityModel

// Predict implements EntityModel.
func (m MultiModel) Predict(ctx context.Context, text string, labels []string, threshold float64) ([]Finding, error) {
	switch len(m) {
	case 0:
		return nil, nil
	case 1:
		return m[0].Predict(ctx, text, labels, threshold)
	}

	results := make([][]Finding, len(m))
	var g errgroup.Group
	for i, model := range m {
		g.Go(func() error {
			found, err := model.Predict(ctx, text, labels, threshold)
			if err != nil {
				slog.Warn("sanitize: model error", "model", i, "err", err)
				return nil
			}
			results[i] = found
			return nil
		})
	}
	_ = g.Wait()

	var all []Finding
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}
