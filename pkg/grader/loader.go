package grader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wikilake/hopcheck/internal/metrics"
	"github.com/wikilake/hopcheck/pkg/chain"
	"github.com/wikilake/hopcheck/pkg/corpus"
	"github.com/wikilake/hopcheck/pkg/passage"
	"github.com/wikilake/hopcheck/pkg/store"
	"github.com/wikilake/hopcheck/pkg/tabular"
)

// corpusLoader resolves file names through the index and fetches bytes
// from the store, parsing them by corpus kind. It implements
// chain.FileLoader; per-context caching lives in chain.Context.
type corpusLoader struct {
	log   *slog.Logger
	index *corpus.Index
	store store.Store
}

func (l *corpusLoader) Load(ctx context.Context, name string) (chain.Value, error) {
	f, ok := l.index.Lookup(name)
	if !ok {
		return chain.Value{}, &store.FileNotFoundError{Name: name}
	}

	data, err := l.store.Fetch(ctx, name)
	if err != nil {
		return chain.Value{}, err
	}
	metrics.CorpusFilesLoadedTotal.WithLabelValues(string(f.Kind)).Inc()

	switch f.Kind {
	case corpus.KindTable:
		t, err := tabular.Load(data)
		if err != nil {
			return chain.Value{}, fmt.Errorf("failed to load table %s: %w", name, err)
		}
		return chain.TableValue(t), nil
	case corpus.KindPassage:
		return chain.PassageValue(passage.Load(data)), nil
	default:
		return chain.Value{}, fmt.Errorf("unsupported corpus kind %q for %s", f.Kind, name)
	}
}
