package dedupe

// Option applies a configuration option to the windowDeduper.
type Option func(*windowDeduper)

// WithWindowSize sets the number of recent payloads compared against.
// Sizes below 1 keep the default.
func WithWindowSize(n int) Option {
	return func(d *windowDeduper) {
		if n > 0 {
			d.window = make([]string, n)
		}
	}
}
