package gpu

// ExtractedAsset is a render-world copy of a main-world asset at a given
// version.
type ExtractedAsset[K comparable, S any] struct {
	Id      K
	Version uint64
	Source  S
}

// PrepareReport lists what one RenderAssets.Update did.
type PrepareReport[K comparable] struct {
	Prepared []K
	Retrying []K
	Failed   map[K]error
	Released []K
}

type preparedAsset[V any] struct {
	value   V
	version uint64
}

// RenderAssets holds the GPU form of one asset kind. Assets that ask to be
// retried are attempted again on the next Update only; failed assets stay
// failed until a newer version is extracted.
type RenderAssets[K comparable, S any, V any] struct {
	prepare func(S) PrepareResult[V]
	release func(V)

	prepared map[K]preparedAsset[V]
	failed   map[K]uint64
	pending  []ExtractedAsset[K, S]
}

func NewRenderAssets[K comparable, S any, V any](prepare func(S) PrepareResult[V], release func(V)) *RenderAssets[K, S, V] {
	return &RenderAssets[K, S, V]{
		prepare:  prepare,
		release:  release,
		prepared: make(map[K]preparedAsset[V]),
		failed:   make(map[K]uint64),
	}
}

func (r *RenderAssets[K, S, V]) Get(id K) (V, bool) {
	p, ok := r.prepared[id]
	return p.value, ok
}

func (r *RenderAssets[K, S, V]) Len() int {
	return len(r.prepared)
}

// Pending returns the ids waiting for the next Update.
func (r *RenderAssets[K, S, V]) Pending() []K {
	ids := make([]K, 0, len(r.pending))
	for _, p := range r.pending {
		ids = append(ids, p.Id)
	}
	return ids
}

// Update releases removed assets, then prepares last frame's retries and
// this frame's extracted assets. A newer extraction of the same id replaces
// its pending retry.
func (r *RenderAssets[K, S, V]) Update(extracted []ExtractedAsset[K, S], removed []K) PrepareReport[K] {
	report := PrepareReport[K]{Failed: make(map[K]error)}

	gone := make(map[K]struct{}, len(removed))
	for _, id := range removed {
		gone[id] = struct{}{}
		delete(r.failed, id)
		if p, ok := r.prepared[id]; ok {
			delete(r.prepared, id)
			if r.release != nil {
				r.release(p.value)
			}
			report.Released = append(report.Released, id)
		}
	}

	fresh := make(map[K]struct{}, len(extracted))
	for _, e := range extracted {
		fresh[e.Id] = struct{}{}
	}

	work := make([]ExtractedAsset[K, S], 0, len(r.pending)+len(extracted))
	for _, p := range r.pending {
		if _, ok := fresh[p.Id]; ok {
			continue
		}
		work = append(work, p)
	}
	work = append(work, extracted...)
	r.pending = r.pending[:0]

	for _, e := range work {
		if _, ok := gone[e.Id]; ok {
			continue
		}
		if p, ok := r.prepared[e.Id]; ok && p.version == e.Version {
			continue
		}
		if v, ok := r.failed[e.Id]; ok && v == e.Version {
			continue
		}

		res := r.prepare(e.Source)
		switch res.Status {
		case PrepareReady:
			if old, ok := r.prepared[e.Id]; ok && r.release != nil {
				r.release(old.value)
			}
			r.prepared[e.Id] = preparedAsset[V]{value: res.Value, version: e.Version}
			delete(r.failed, e.Id)
			report.Prepared = append(report.Prepared, e.Id)
		case PrepareRetryNextFrame:
			r.pending = append(r.pending, e)
			report.Retrying = append(report.Retrying, e.Id)
		default:
			r.failed[e.Id] = e.Version
			report.Failed[e.Id] = res.Err
		}
	}
	return report
}
