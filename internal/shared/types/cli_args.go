package types

// CLIArgs represents the command-line arguments.
type CLIArgs struct {
	ConfigFile      string
	Providers       []string
	InstanceType    string
	Region          string
	Scope           string
	Offline         bool
	ReportName      string
	ReportType      []string
	Dir             string
	TimeoutSeconds  int
	RedisURL        string
	MetricsTextfile string
}

// Config converts the flags that were set into a Config overlay.
func (a *CLIArgs) Config() *Config {
	return &Config{
		Providers:       a.Providers,
		InstanceType:    a.InstanceType,
		Region:          a.Region,
		Scope:           a.Scope,
		Offline:         a.Offline,
		ReportName:      a.ReportName,
		ReportType:      a.ReportType,
		Dir:             a.Dir,
		TimeoutSeconds:  a.TimeoutSeconds,
		RedisURL:        a.RedisURL,
		MetricsTextfile: a.MetricsTextfile,
	}
}
