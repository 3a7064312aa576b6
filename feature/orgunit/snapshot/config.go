package snapshot

// Config holds defaults for snapshot files.
type Config struct {
	// DefaultPath is the snapshot written by export when no file is given.
	DefaultPath string `mapstructure:"default_path" default:"test.xml"`
	// Dir is the directory API callers read and write snapshot files in.
	// HTTP references cannot leave it.
	Dir string `mapstructure:"dir" default:"snapshots"`
}
