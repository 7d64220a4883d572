package orchestrate

import (
	"context"
	"sync"

	"github.com/rotationalphysics495/plantops/datasource"
)

// recordingSource wraps a Source and captures the provenance of every
// successful query the handler issues, so the orchestrator can cite all
// touched data even when the handler combines several queries.
type recordingSource struct {
	inner datasource.Source

	mu       sync.Mutex
	recorded []datasource.Provenance
}

var _ datasource.Source = (*recordingSource)(nil)

func newRecordingSource(inner datasource.Source) *recordingSource {
	return &recordingSource{inner: inner}
}

func (r *recordingSource) Name() string {
	return r.inner.Name()
}

func (r *recordingSource) Query(ctx context.Context, q datasource.Query) (*datasource.Result, error) {
	res, err := r.inner.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.recorded = append(r.recorded, res.Provenance)
	r.mu.Unlock()
	return res, nil
}

func (r *recordingSource) ResolveName(ctx context.Context, table, column, name string) (*datasource.Match, error) {
	return r.inner.ResolveName(ctx, table, column, name)
}

func (r *recordingSource) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

// citations returns everything recorded plus the handler's own result
// provenance, deduplicated, in query order. The returned slice is never
// nil.
func (r *recordingSource) citations(final datasource.Provenance) []datasource.Provenance {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]datasource.Provenance, 0, len(r.recorded)+1)
	seen := make(map[datasource.Provenance]struct{}, len(r.recorded)+1)

	add := func(p datasource.Provenance) {
		if p == (datasource.Provenance{}) {
			return
		}
		if _, dup := seen[p]; dup {
			return
		}
		seen[p] = struct{}{}
		all = append(all, p)
	}

	for _, p := range r.recorded {
		add(p)
	}
	add(final)
	return all
}
