package otbin

// Pool implements the value-pooling discipline on top of a Writer:
// structurally identical substructures are emitted exactly once and
// referenced by any number of offset fields. The caller computes a
// canonical, value-equality key for each candidate substructure. The
// key's shape is format-specific (coordinates, devices, anchors all
// immutabilize differently), which is why the pool does not attempt to
// derive keys itself.
//
// The discipline has two phases. Reference phase: for every place that
// points at the substructure, call Ref(key) and target the returned
// stake with an unresolved offset. Emission phase: for every distinct
// key, in the format's deterministic order, bind the stake via
// BindStake and write the substructure body once. An unbound pooled
// stake is caught by Finalize, so a forgotten emission cannot slip
// through.
type Pool[K comparable] struct {
	w      *Writer
	stakes map[K]Stake
}

// NewPool creates an empty pool tied to a writer.
func NewPool[K comparable](w *Writer) *Pool[K] {
	return &Pool[K]{w: w, stakes: make(map[K]Stake)}
}

// Ref returns the one stake associated with key, creating a fresh
// unbound stake on first use. All value-equal substructures share the
// stake, no matter how many containers reference them.
func (p *Pool[K]) Ref(key K) Stake {
	if s, ok := p.stakes[key]; ok {
		return s
	}
	s := p.w.NewStake()
	p.stakes[key] = s
	return s
}

// Known reports whether key has been referenced before.
func (p *Pool[K]) Known(key K) bool {
	_, ok := p.stakes[key]
	return ok
}

// Len returns the number of distinct keys.
func (p *Pool[K]) Len() int {
	return len(p.stakes)
}

// Keys returns the distinct keys in unspecified order. Callers owe the
// output a deterministic emission order and sort these by the format's
// canonical sort key themselves.
func (p *Pool[K]) Keys() []K {
	keys := make([]K, 0, len(p.stakes))
	for k := range p.stakes {
		keys = append(keys, k)
	}
	return keys
}
