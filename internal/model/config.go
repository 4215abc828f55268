package model

import "time"

// Config is the full truthscan configuration.
// Built from DefaultConfig, overlaid by the config file, env vars and flags.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Providers    ProvidersConfig    `yaml:"providers" mapstructure:"providers"`
	Policy       Policy             `yaml:"policy" mapstructure:"policy"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Search       SearchConfig       `yaml:"search" mapstructure:"search"`
	Domains      DomainsConfig      `yaml:"domains" mapstructure:"domains"`
	Authority    AuthorityConfig    `yaml:"authority" mapstructure:"authority"`
	Forensics    ForensicsConfig    `yaml:"forensics" mapstructure:"forensics"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls outbound HTTP requests (page fetch, search, TLS probe)
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the search/DNS result cache
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL        time.Duration `yaml:"ttl" mapstructure:"ttl"`
	MaxEntries int           `yaml:"max_entries" mapstructure:"max_entries"` // Memory layer bound
	Dir        string        `yaml:"dir" mapstructure:"dir"`                 // Disk layer; empty disables it
	RedisURL   string        `yaml:"redis_url" mapstructure:"redis_url"`     // Shared layer; empty disables it
}

// ConcurrencyConfig controls worker counts
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"` // Batch analyses in flight
}

// RateLimitingConfig controls per-host outbound request rates
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ProvidersConfig holds per-provider budgets and switches
type ProvidersConfig struct {
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`                 // Budget per provider call
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"` // Budget for one whole analysis
	Sentiment      string        `yaml:"sentiment" mapstructure:"sentiment"`             // lexicon, llm, off
	FactCheck      bool          `yaml:"fact_check" mapstructure:"fact_check"`
	DNSCheck       bool          `yaml:"dns_check" mapstructure:"dns_check"`
	TLSCheck       bool          `yaml:"tls_check" mapstructure:"tls_check"`
	MaxTextChars   int           `yaml:"max_text_chars" mapstructure:"max_text_chars"` // Page text passed to text providers
}

// LLMConfig configures the LLM-backed sentiment classifier
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SearchConfig configures the fact-check web search
type SearchConfig struct {
	BaseURL        string   `yaml:"base_url" mapstructure:"base_url"`
	MaxClaims      int      `yaml:"max_claims" mapstructure:"max_claims"`           // Claims extracted per text
	MaxChecks      int      `yaml:"max_checks" mapstructure:"max_checks"`           // Claims actually searched
	MaxResults     int      `yaml:"max_results" mapstructure:"max_results"`         // Results read per search
	TrustedSources []string `yaml:"trusted_sources" mapstructure:"trusted_sources"` // Results from these count double
}

// DomainsConfig configures the domain trust checker
type DomainsConfig struct {
	Trusted        []string `yaml:"trusted" mapstructure:"trusted"`
	SuspiciousTLDs []string `yaml:"suspicious_tlds" mapstructure:"suspicious_tlds"`
	UserHosted     []string `yaml:"user_hosted" mapstructure:"user_hosted"`
	MaxLength      int      `yaml:"max_length" mapstructure:"max_length"`
	Resolver       string   `yaml:"resolver" mapstructure:"resolver"` // host:port for DNS probes
}

// AuthorityConfig configures authority tier classification
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`
	PathPatterns     []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns"`
}

// PathPattern maps a URL path regexp to an authority tier
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// ForensicsConfig tunes the image forensics detector
type ForensicsConfig struct {
	BlockSize     int   `yaml:"block_size" mapstructure:"block_size"`
	MinDimension  int   `yaml:"min_dimension" mapstructure:"min_dimension"`
	MaxImageBytes int64 `yaml:"max_image_bytes" mapstructure:"max_image_bytes"`
	CopyMove      bool  `yaml:"copy_move" mapstructure:"copy_move"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string   `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	Metrics        bool     `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig configures the structured logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// OutputConfig controls CLI rendering
type OutputConfig struct {
	Verbose    bool `yaml:"verbose" mapstructure:"verbose"`
	Color      bool `yaml:"color" mapstructure:"color"`
	IncludeRaw bool `yaml:"include_raw" mapstructure:"include_raw"`
}

// DefaultTrustedDomains are news organisations and agencies treated as reliable
var DefaultTrustedDomains = []string{
	"bbc.com", "bbc.co.uk", "reuters.com", "apnews.com", "ap.org",
	"theguardian.com", "lemonde.fr", "france24.com", "franceinfo.fr", "lefigaro.fr",
	"nytimes.com", "washingtonpost.com", "cnn.com", "afp.com",
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:       15 * time.Second,
			UserAgent:     "truthscan/0.3 (+https://github.com/ppiankov/truthscan)",
			MaxBodyBytes:  2_000_000,
			MaxRetries:    2,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        6 * time.Hour,
			MaxEntries: 10_000,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Providers: ProvidersConfig{
			Timeout:        10 * time.Second,
			RequestTimeout: 45 * time.Second,
			Sentiment:      "lexicon",
			FactCheck:      true,
			DNSCheck:       true,
			TLSCheck:       true,
			MaxTextChars:   5000,
		},
		Policy: DefaultPolicy(),
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 200,
		},
		Search: SearchConfig{
			BaseURL:    "https://html.duckduckgo.com",
			MaxClaims:  5,
			MaxChecks:  3,
			MaxResults: 5,
			TrustedSources: []string{
				"snopes.com", "factcheck.org", "politifact.com", "fullfact.org",
				"reuters.com", "apnews.com", "afp.com", "bbc.com", "wikipedia.org",
				"lemonde.fr", "francetvinfo.fr", "liberation.fr",
			},
		},
		Domains: DomainsConfig{
			Trusted:        append([]string(nil), DefaultTrustedDomains...),
			SuspiciousTLDs: []string{".tk", ".ml", ".ga", ".cf", ".gq", ".xyz", ".top", ".click", ".download", ".buzz"},
			UserHosted:     []string{"blogspot.com", "wordpress.com", "tumblr.com", "weebly.com", "wixsite.com"},
			MaxLength:      50,
			Resolver:       "1.1.1.1:53",
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"who.int", "un.org", "europa.eu", "gouv.fr", "gov.uk", "nih.gov", "cdc.gov",
			},
			SecondaryDomains: []string{
				"wikipedia.org", "britannica.com", "nature.com", "science.org",
				"snopes.com", "factcheck.org", "politifact.com", "fullfact.org",
			},
		},
		Forensics: ForensicsConfig{
			BlockSize:     16,
			MinDimension:  32,
			MaxImageBytes: 16 << 20,
			CopyMove:      true,
		},
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"*"},
			Metrics:        true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			Color: true,
		},
	}
}
