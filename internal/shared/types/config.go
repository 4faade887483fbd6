package types

// Config represents the application configuration that can be loaded from a file.
type Config struct {
	Providers       []string `json:"providers" yaml:"providers" toml:"providers"`
	InstanceType    string   `json:"instance_type" yaml:"instance_type" toml:"instance_type"`
	Region          string   `json:"region" yaml:"region" toml:"region"`
	Scope           string   `json:"scope" yaml:"scope" toml:"scope"`
	Offline         bool     `json:"offline" yaml:"offline" toml:"offline"`
	ReportName      string   `json:"report_name" yaml:"report_name" toml:"report_name"`
	ReportType      []string `json:"report_type" yaml:"report_type" toml:"report_type"`
	Dir             string   `json:"dir" yaml:"dir" toml:"dir"`
	TimeoutSeconds  int      `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
	AWSProfile      string   `json:"aws_profile" yaml:"aws_profile" toml:"aws_profile"`
	GCPAPIKey       string   `json:"gcp_api_key" yaml:"gcp_api_key" toml:"gcp_api_key"`
	AzureToken      string   `json:"azure_access_token" yaml:"azure_access_token" toml:"azure_access_token"`
	RedisURL        string   `json:"redis_url" yaml:"redis_url" toml:"redis_url"`
	PriceCacheTTL   int      `json:"price_cache_ttl" yaml:"price_cache_ttl" toml:"price_cache_ttl"`
	CatalogCacheTTL int      `json:"catalog_cache_ttl" yaml:"catalog_cache_ttl" toml:"catalog_cache_ttl"`
	MetricsTextfile string   `json:"metrics_textfile" yaml:"metrics_textfile" toml:"metrics_textfile"`
}

// Default values, in seconds where applicable.
const (
	DefaultTimeoutSeconds  = 30
	DefaultPriceCacheTTL   = 3600
	DefaultCatalogCacheTTL = 86400
)

// DefaultConfig returns the configuration used when no file or flag overrides a value.
func DefaultConfig() *Config {
	return &Config{
		Providers:       []string{"aws", "azure", "gcp"},
		ReportType:      []string{"csv"},
		TimeoutSeconds:  DefaultTimeoutSeconds,
		PriceCacheTTL:   DefaultPriceCacheTTL,
		CatalogCacheTTL: DefaultCatalogCacheTTL,
	}
}

// Merge copies every non-zero field of other into c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if len(other.Providers) > 0 {
		c.Providers = other.Providers
	}
	if other.InstanceType != "" {
		c.InstanceType = other.InstanceType
	}
	if other.Region != "" {
		c.Region = other.Region
	}
	if other.Scope != "" {
		c.Scope = other.Scope
	}
	if other.Offline {
		c.Offline = true
	}
	if other.ReportName != "" {
		c.ReportName = other.ReportName
	}
	if len(other.ReportType) > 0 {
		c.ReportType = other.ReportType
	}
	if other.Dir != "" {
		c.Dir = other.Dir
	}
	if other.TimeoutSeconds > 0 {
		c.TimeoutSeconds = other.TimeoutSeconds
	}
	if other.AWSProfile != "" {
		c.AWSProfile = other.AWSProfile
	}
	if other.GCPAPIKey != "" {
		c.GCPAPIKey = other.GCPAPIKey
	}
	if other.AzureToken != "" {
		c.AzureToken = other.AzureToken
	}
	if other.RedisURL != "" {
		c.RedisURL = other.RedisURL
	}
	if other.PriceCacheTTL > 0 {
		c.PriceCacheTTL = other.PriceCacheTTL
	}
	if other.CatalogCacheTTL > 0 {
		c.CatalogCacheTTL = other.CatalogCacheTTL
	}
	if other.MetricsTextfile != "" {
		c.MetricsTextfile = other.MetricsTextfile
	}
}
