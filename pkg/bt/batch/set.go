package batch

var _sentinel = struct{}{}

type set[K comparable] struct {
	items map[K]struct{}
}

func newSet[K comparable]() *set[K] {
	return &set[K]{
		items: make(map[K]struct{}),
	}
}

func (s *set[K]) Len() int {
	return len(s.items)
}

func (s *set[K]) Put(v K) {
	s.items[v] = _sentinel
}

func (s *set[K]) Has(v K) bool {
	_, ok := s.items[v]
	return ok
}

// Unique returns all in order of first appearance, without repeats.
func Unique[K comparable](all []K) []K {
	seen := newSet[K]()
	out := make([]K, 0, len(all))
	for _, item := range all {
		if seen.Has(item) {
			continue
		}
		seen.Put(item)
		out = append(out, item)
	}
	return out
}
