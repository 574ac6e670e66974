package page

// Config bounds the page sizes accepted from callers.
type Config struct {
	// DefaultSize is used when a caller does not pick a size
	DefaultSize int `koanf:"default_size" yaml:"default_size" validate:"omitempty,gte=1"`

	// MaxSize caps caller-picked sizes; 0 disables the cap
	MaxSize int `koanf:"max_size" yaml:"max_size" validate:"omitempty,gte=1"`
}

// DefaultConfig returns the standard bounds: 25-item pages capped at 100.
func DefaultConfig() Config {
	return Config{
		DefaultSize: 25,
		MaxSize:     100,
	}
}

// Effective resolves a requested page size against the bounds. Zero or
// negative means "use the default"; anything above MaxSize is capped.
func (c Config) Effective(requested int) int {
	size := requested
	if size <= 0 {
		size = c.DefaultSize
	}
	if c.MaxSize > 0 && size > c.MaxSize {
		size = c.MaxSize
	}
	return size
}
