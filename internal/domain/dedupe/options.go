package dedupe

// Option configures a Deduper.
type Option func(*memoryDeduper)

// WithMaxSize bounds the number of remembered ids. The oldest id is forgotten
// first once the bound is reached. A non-positive size keeps every id.
func WithMaxSize(maxSize int) Option {
	return func(d *memoryDeduper) {
		d.maxSize = maxSize
	}
}
