package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	Addr              string // listen addr for the dashboard server
	Year              int    // season used when no year is given
	SessionType       string // session type of resolved events (Race, Qualifying, ...)
	Demo              bool   // use built-in demo data instead of the upstream source
	SourceURL         string // base URL of the OpenF1 API
	CircuitURL        string // base URL of the circuit info API
	SourceTimeout     string // timeout for requests to the upstream source
	ScheduleTTL       string // how long season schedules are cached
	NatsURL           string // if set, session changes are published to NATS
	WaitForServices   string // duration to wait for other services to be ready
	LogLevel          string // sets the log level (zap log level values)
	LogFormat         string // text vs json
	LogFilter         string // zapfilter rules, empty means no filtering
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry, empty value prints to stdout
	ProfilingPort     int    // port for profiling
)
