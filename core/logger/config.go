package logger

// Config holds configuration for the logger.
type Config struct {
	// Level is the minimum enabled level (debug, info, warn, error).
	Level string `mapstructure:"level" default:"info"`
	// Format is the output encoding (json, console).
	Format string `mapstructure:"format" default:"console"`
	// Output is where log entries are written: stderr, stdout or a file path.
	Output string `mapstructure:"output" default:"stderr"`
}
