package internal

// Option is a functional option for assembling the application.
type Option func(*application)

type application struct {
	config *Config
}

// WithConfig supplies the validated application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}
