package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithHistorySize sets how many reports the history keeps.
func WithHistorySize(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.historySize = n
		}
	}
}
