package dedupe

import "context"

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithNormalizer sets how names are keyed. The default trims surrounding space.
func WithNormalizer(fn func(string) string) Option {
	return func(d *inMemoryDeduper) {
		if fn != nil {
			d.normalize = fn
		}
	}
}

// WithSeed pre-records names, typically the ones already in an output file.
func WithSeed(names []string) Option {
	return func(d *inMemoryDeduper) {
		for _, n := range names {
			d.SeenAndRecord(context.Background(), n)
		}
	}
}
