package config

// NewTaxonomy builds a Taxonomy config with a preset path for testing.
func NewTaxonomy(path string) *Taxonomy {
	return &Taxonomy{path: path}
}

// ConfigureLogger applies the given settings and runs Configure for testing.
func ConfigureLogger(l *Logger, level, format, output string) (func(), error) {
	l.level = level
	l.format = format
	l.output = output
	return l.Configure()
}
