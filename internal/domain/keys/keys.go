package keys

// Terminal keys
const (
	OutputDir         string = "output-dir"
	BinDir            string = "bin-dir"
	ConcurrencyLimit  string = "concurrency-limit"
	DLRetries         string = "dl-retries"
	InactivityTimeout string = "inactivity-timeout"
	Port              string = "port"
	TomlPath          string = "config-file"
)

// Logging
const (
	DebugLevel string = "debug-level"
)
