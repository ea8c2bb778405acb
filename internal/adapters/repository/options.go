package repository

// Default stage store configuration constants.
const (
	defaultMaxEntries = 16
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMaxEntries bounds the number of cached stage pairs. Oldest entries are
// evicted first. Values <= 0 keep the default.
func WithMaxEntries(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}
