package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xdigest/pkg/auth"
	"xdigest/pkg/config"
	"xdigest/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage xdigest configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (XDIGEST_*)
  - .env files
  - Configuration file
  - Legacy config.json credentials
  - Default values (lowest priority)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.xdigest.yaml' in the current directory unless a
different path is given with --config.`,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with secrets masked",
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# xdigest configuration file
#
# Every option can also be set with an XDIGEST_ environment variable,
# for example XDIGEST_API_KEY, XDIGEST_AUTH_TOKEN or XDIGEST_MAX_PAGES.

api:
  base_url: "https://api.apidance.pro"
  timeline_path: "/graphql/HomeLatestTimeline"
  # Leave empty to use stored credentials ('xdigest auth login')
  api_key: ""
  auth_token: ""
  request_timeout: 30s

crawl:
  # Keep posts created within this many hours of the run start
  lookback_hours: 24
  # Stop after this many pages
  max_pages: 30
  # Pause between page requests
  page_delay: 1.5s
  # Posts whose date cannot be parsed: skip, or now (keep, dated at run start)
  bad_date_policy: skip

report:
  directory: "."
  # {date} is the run date (YYYYMMDD), {run_id} the run identifier
  file_name_pattern: "timeline_digest_{date}"
  # text, json
  formats: [text]
  timezone: "UTC"
  title: "Home timeline digest"

# Optional database archive: dynamodb, mongodb or postgresql
archive:
  type: ""
  region: "us-west-2"
  table_name: "timeline_tweets"
  endpoint: ""
  mongodb_uri: ""
  database: "xdigest"
  collection: "tweets"
  postgres_uri: ""

auth:
  profile: "default"
  # Save credentials entered at the prompt
  save_prompted: true

logging:
  # debug, info, warn, error
  level: "info"
  # Also write logs to this file
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".xdigest.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'xdigest auth login' or fill in api_key and auth_token")
	fmt.Println("2. Run 'xdigest config validate' to check the configuration")
	fmt.Println("3. Run 'xdigest' to write today's digest")
	return nil
}

// maskedConfig returns a copy of cfg safe to print
func maskedConfig(cfg *config.Config) *config.Config {
	out := *cfg
	out.API.APIKey = auth.Mask(cfg.API.APIKey)
	out.API.AuthToken = auth.Mask(cfg.API.AuthToken)
	return &out
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(maskedConfig(cfg))
	if err != nil {
		return fmt.Errorf("format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var warnings []string
	if cfg.API.APIKey == "" || cfg.API.AuthToken == "" {
		warnings = append(warnings, "no credentials in configuration; stored credentials or a prompt will be used")
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
	}
	if err := os.MkdirAll(cfg.Report.Directory, 0755); err != nil {
		return fmt.Errorf("cannot create report directory: %w", err)
	}

	for _, w := range warnings {
		ui.PrintWarning("Warning", w)
	}
	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Lookback: %dh\n", cfg.Crawl.LookbackHours)
	fmt.Printf("  Max pages: %d\n", cfg.Crawl.MaxPages)
	fmt.Printf("  Page delay: %s\n", cfg.Crawl.PageDelay)
	fmt.Printf("  Report directory: %s\n", cfg.Report.Directory)
	fmt.Printf("  Report formats: %v\n", cfg.Report.Formats)
	if cfg.Archive.Enabled() {
		fmt.Printf("  Archive: %s\n", cfg.Archive.Type)
	}
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
