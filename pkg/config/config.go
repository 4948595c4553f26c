package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is the unofficial API proxy host
	DefaultBaseURL = "https://api.apidance.pro"
	// DefaultTimelinePath is the GraphQL-style home timeline endpoint
	DefaultTimelinePath = "/graphql/HomeLatestTimeline"
	// LegacyCredentialsFile is the JSON credentials file older installs used
	LegacyCredentialsFile = "config.json"

	envPrefix = "XDIGEST_"
)

// Bad date policies
const (
	BadDateSkip = "skip"
	BadDateNow  = "now"
)

// Config holds all configuration options for the timeline digest
type Config struct {
	// Upstream API access
	API APIConfig `yaml:"api" json:"api"`

	// Pagination and time window
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Report output
	Report ReportConfig `yaml:"report" json:"report"`

	// Optional database archive of collected records
	Archive ArchiveConfig `yaml:"archive" json:"archive"`

	// Stored credential selection
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds the proxy endpoint and credentials
type APIConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	TimelinePath   string        `yaml:"timeline_path" json:"timeline_path"`
	APIKey         string        `yaml:"api_key" json:"api_key"`
	AuthToken      string        `yaml:"auth_token" json:"auth_token"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// CrawlConfig holds the stop conditions and pacing of a crawl
type CrawlConfig struct {
	LookbackHours int           `yaml:"lookback_hours" json:"lookback_hours"`
	MaxPages      int           `yaml:"max_pages" json:"max_pages"`
	PageDelay     time.Duration `yaml:"page_delay" json:"page_delay"`
	BadDatePolicy string        `yaml:"bad_date_policy" json:"bad_date_policy"`
}

// Lookback returns the configured lookback as a duration
func (c CrawlConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackHours) * time.Hour
}

// ReportConfig holds report file settings
type ReportConfig struct {
	Directory       string   `yaml:"directory" json:"directory"`
	FileNamePattern string   `yaml:"file_name_pattern" json:"file_name_pattern"`
	Formats         []string `yaml:"formats" json:"formats"`
	Timezone        string   `yaml:"timezone" json:"timezone"`
	Title           string   `yaml:"title" json:"title"`
}

// ArchiveConfig selects and configures a database archive
type ArchiveConfig struct {
	Type        string `yaml:"type" json:"type"` // "", "dynamodb", "mongodb", "postgresql"
	Region      string `yaml:"region" json:"region"`
	TableName   string `yaml:"table_name" json:"table_name"`
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
	MongoDBURI  string `yaml:"mongodb_uri" json:"mongodb_uri"`
	Database    string `yaml:"database" json:"database"`
	Collection  string `yaml:"collection" json:"collection"`
	PostgresURI string `yaml:"postgres_uri" json:"postgres_uri"`
}

// Enabled reports whether an archive backend is configured
func (a ArchiveConfig) Enabled() bool {
	return a.Type != ""
}

// AuthConfig holds stored credential preferences
type AuthConfig struct {
	Profile      string `yaml:"profile" json:"profile"`
	SavePrompted bool   `yaml:"save_prompted" json:"save_prompted"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with the stock crawl settings
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			TimelinePath:   DefaultTimelinePath,
			RequestTimeout: 30 * time.Second,
		},
		Crawl: CrawlConfig{
			LookbackHours: 24,
			MaxPages:      30,
			PageDelay:     1500 * time.Millisecond,
			BadDatePolicy: BadDateSkip,
		},
		Report: ReportConfig{
			Directory:       ".",
			FileNamePattern: "timeline_digest_{date}",
			Formats:         []string{"text"},
			Timezone:        "UTC",
			Title:           "Home timeline digest",
		},
		Archive: ArchiveConfig{
			Region:     "us-west-2",
			TableName:  "timeline_tweets",
			Database:   "xdigest",
			Collection: "tweets",
		},
		Auth: AuthConfig{
			Profile:      "default",
			SavePrompted: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from XDIGEST_* environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv(envPrefix + "API_KEY"); v != "" {
		c.API.APIKey = v
	}
	if v := os.Getenv(envPrefix + "AUTH_TOKEN"); v != "" {
		c.API.AuthToken = v
	}
	if v := os.Getenv(envPrefix + "BASE_URL"); v != "" {
		c.API.BaseURL = v
	}

	if v := os.Getenv(envPrefix + "LOOKBACK_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %sLOOKBACK_HOURS: %w", envPrefix, err)
		}
		c.Crawl.LookbackHours = hours
	}
	if v := os.Getenv(envPrefix + "MAX_PAGES"); v != "" {
		pages, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %sMAX_PAGES: %w", envPrefix, err)
		}
		c.Crawl.MaxPages = pages
	}
	if v := os.Getenv(envPrefix + "PAGE_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %sPAGE_DELAY: %w", envPrefix, err)
		}
		c.Crawl.PageDelay = d
	}

	if v := os.Getenv(envPrefix + "OUTPUT_DIR"); v != "" {
		c.Report.Directory = v
	}
	if v := os.Getenv(envPrefix + "REPORT_FORMATS"); v != "" {
		c.Report.Formats = splitList(v)
	}

	if v := os.Getenv(envPrefix + "ARCHIVE_TYPE"); v != "" {
		c.Archive.Type = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		c.Archive.MongoDBURI = v
	}
	if v := os.Getenv("POSTGRES_URI"); v != "" {
		c.Archive.PostgresURI = v
	}
	if v := os.Getenv("DYNAMODB_ENDPOINT"); v != "" {
		c.Archive.Endpoint = v
	}

	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadLegacyCredentials reads the {"apikey","authtoken"} JSON file.
// A missing or unreadable file is not an error; values already set win.
func (c *Config) LoadLegacyCredentials(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var legacy struct {
		APIKey    string `json:"apikey"`
		AuthToken string `json:"authtoken"`
	}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return
	}

	if c.API.APIKey == "" {
		c.API.APIKey = strings.TrimSpace(legacy.APIKey)
	}
	if c.API.AuthToken == "" {
		c.API.AuthToken = strings.TrimSpace(legacy.AuthToken)
	}
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".xdigest.yaml",
		".xdigest.yml",
		filepath.Join(home, ".config", "xdigest", "config.yaml"),
		filepath.Join(home, ".config", "xdigest", "config.yml"),
		filepath.Join(home, ".xdigest.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid.
// Credentials are checked separately, right before a crawl starts.
func (c *Config) Validate() error {
	var errs []error

	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api base URL is required"))
	}
	if !strings.HasPrefix(c.API.TimelinePath, "/") {
		errs = append(errs, errors.New("api timeline path must start with /"))
	}
	if c.API.RequestTimeout < 0 {
		errs = append(errs, errors.New("request timeout cannot be negative"))
	}

	if c.Crawl.LookbackHours < 0 {
		errs = append(errs, errors.New("lookback hours cannot be negative"))
	}
	if c.Crawl.MaxPages <= 0 {
		errs = append(errs, errors.New("max pages must be positive"))
	}
	if c.Crawl.PageDelay < 0 {
		errs = append(errs, errors.New("page delay cannot be negative"))
	}
	switch c.Crawl.BadDatePolicy {
	case BadDateSkip, BadDateNow:
	default:
		errs = append(errs, fmt.Errorf("invalid bad date policy %q (want skip or now)", c.Crawl.BadDatePolicy))
	}

	if c.Report.Directory == "" {
		errs = append(errs, errors.New("report directory is required"))
	}
	if c.Report.FileNamePattern == "" {
		errs = append(errs, errors.New("report file name pattern is required"))
	}
	if len(c.Report.Formats) == 0 {
		errs = append(errs, errors.New("at least one report format is required"))
	}
	for _, f := range c.Report.Formats {
		if f != "text" && f != "json" {
			errs = append(errs, fmt.Errorf("invalid report format %q", f))
		}
	}
	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("invalid report timezone: %w", err))
	}

	switch c.Archive.Type {
	case "":
	case "dynamodb":
		if c.Archive.TableName == "" {
			errs = append(errs, errors.New("dynamodb archive requires a table name"))
		}
	case "mongodb":
		if c.Archive.MongoDBURI == "" {
			errs = append(errs, errors.New("mongodb archive requires a URI"))
		}
	case "postgresql":
		if c.Archive.PostgresURI == "" {
			errs = append(errs, errors.New("postgresql archive requires a URI"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported archive type %q", c.Archive.Type))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["api-key"].(string); ok && v != "" {
		c.API.APIKey = v
	}
	if v, ok := flags["auth-token"].(string); ok && v != "" {
		c.API.AuthToken = v
	}
	if v, ok := flags["lookback-hours"].(int); ok && v >= 0 {
		c.Crawl.LookbackHours = v
	}
	if v, ok := flags["max-pages"].(int); ok && v > 0 {
		c.Crawl.MaxPages = v
	}
	if v, ok := flags["page-delay"].(time.Duration); ok && v >= 0 {
		c.Crawl.PageDelay = v
	}
	if v, ok := flags["bad-date-policy"].(string); ok && v != "" {
		c.Crawl.BadDatePolicy = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Report.Directory = v
	}
	if v, ok := flags["format"].([]string); ok && len(v) > 0 {
		c.Report.Formats = v
	}
	if v, ok := flags["profile"].(string); ok && v != "" {
		c.Auth.Profile = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > legacy config.json > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".xdigest.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config.LoadLegacyCredentials(LegacyCredentialsFile)

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
