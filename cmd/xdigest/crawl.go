package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xdigest/internal/archive"
	"xdigest/pkg/auth"
	"xdigest/pkg/config"
	"xdigest/pkg/crawler"
	"xdigest/pkg/errors"
	"xdigest/pkg/logger"
	"xdigest/pkg/report"
	"xdigest/pkg/timeline"
	"xdigest/pkg/ui"
)

const publishTimeout = time.Minute

var (
	// Crawl command flags
	lookbackHours int
	maxPages      int
	pageDelay     time.Duration
	outputDir     string
	formats       []string
	profile       string
	apiKey        string
	authToken     string
	badDatePolicy string
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the home timeline and write a digest",
	Long: `Crawl the home timeline from the newest post backwards and write every
post inside the lookback window to the configured report files.

Credentials are taken from, in order:
  - --api-key / --auth-token flags
  - XDIGEST_API_KEY / XDIGEST_AUTH_TOKEN or the configuration file
  - a legacy config.json in the working directory
  - stored credentials (see 'xdigest auth login')
  - an interactive prompt when running in a terminal

Exit status is 0 when records were written, 2 when the run collected nothing
and 1 on any other failure.`,
	Example: `  # Last 24 hours, default settings
  xdigest

  # Last 6 hours, at most 10 pages, text and JSON output
  xdigest crawl --lookback-hours 6 --max-pages 10 --format text,json

  # Use a stored profile
  xdigest crawl --profile work`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	addCrawlFlags(crawlCmd)
	addCrawlFlags(rootCmd)
}

func addCrawlFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&lookbackHours, "lookback-hours", 24, "keep posts created within this many hours")
	f.IntVar(&maxPages, "max-pages", 30, "maximum number of pages to fetch")
	f.DurationVar(&pageDelay, "page-delay", 1500*time.Millisecond, "pause between page requests")
	f.StringVarP(&outputDir, "output", "o", "", "directory for report files (default: current directory)")
	f.StringSliceVar(&formats, "format", nil, "report formats: text, json")
	f.StringVarP(&profile, "profile", "p", "", "stored credential profile to use")
	f.StringVar(&apiKey, "api-key", "", "API proxy key")
	f.StringVar(&authToken, "auth-token", "", "account auth token")
	f.StringVar(&badDatePolicy, "bad-date-policy", "", "posts with unparseable dates: skip or now")
}

// commandFlags collects the flags set on the command line for config.Load
func commandFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	f := cmd.Flags()
	set := func(name string, v interface{}) {
		if f.Changed(name) {
			flags[name] = v
		}
	}
	set("lookback-hours", lookbackHours)
	set("max-pages", maxPages)
	set("page-delay", pageDelay)
	set("output", outputDir)
	set("format", formats)
	set("profile", profile)
	set("api-key", apiKey)
	set("auth-token", authToken)
	set("bad-date-policy", badDatePolicy)
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandFlags(cmd))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeConfig, err, "load configuration")
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return errors.Wrap(errors.ErrorTypeConfig, err, "initialize logger")
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("xdigest starting")

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Warn("credential store unavailable")
		manager = auth.NewManagerWithStores(auth.NewEnvironmentStore())
	}

	var prompt credentialPrompt
	if term.IsTerminal(int(syscall.Stdin)) {
		prompt = terminalPrompt(os.Stdin, os.Stdout)
	}
	source, err := resolveCredentials(cfg, manager, prompt)
	if err != nil {
		return err
	}
	log.WithField("source", source).Info("credentials resolved")
	ui.PrintInfo("Credentials", source)

	client, err := timeline.NewClient(cfg.API, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := ui.NewCrawlProgress(cfg.Crawl.MaxPages)
	opts := append(crawler.OptionsFromConfig(cfg.Crawl),
		crawler.WithLogger(log),
		crawler.WithPageObserver(progress.Observe),
	)

	ui.PrintHighlight(fmt.Sprintf("[CRAWLING LAST %dH]", cfg.Crawl.LookbackHours))
	res := crawler.New(client, opts...).Run(ctx)

	if res.StopReason == crawler.StopFetchFailure {
		if res.Empty() {
			return fmt.Errorf("crawl failed on page %d: %w", res.PagesVisited+1, res.Err)
		}
		ui.PrintWarning("Crawl stopped early", res.Err)
	}

	return publish(res, cfg, log)
}

// publish writes the crawl result to the report files and, when
// configured, the archive. It runs on its own context so an interrupted
// crawl still saves what it collected.
func publish(res *crawler.Result, cfg *config.Config, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	sinks, err := report.NewFileSinks(cfg.Report)
	if err != nil {
		return err
	}
	pub := report.NewPublisher(log, sinks...)

	var archiveErr error
	if cfg.Archive.Enabled() {
		store, err := archive.NewStore(ctx, cfg.Archive)
		if err != nil {
			log.WithError(err).WithField("archive", cfg.Archive.Type).Error("archive unavailable")
			archiveErr = err
		} else {
			defer store.Close(ctx)
			pub.Add(store)
		}
	}

	rep := report.FromResult(res, time.Now())
	err = pub.Publish(ctx, rep)
	ui.PrintSummary(res, pub.Paths())

	if stderrors.Is(err, errors.ErrNoData) {
		ui.PrintWarning("No posts found in the last " + res.Window.Lookback().String())
		return err
	}
	return stderrors.Join(err, archiveErr)
}

// credentialSource is the part of auth.Manager the crawl needs
type credentialSource interface {
	Retrieve(profile string) (*auth.Credentials, error)
	RetrieveDefault() (*auth.Credentials, error)
	Store(creds *auth.Credentials) error
}

// credentialPrompt asks the operator for credentials; nil means no terminal
type credentialPrompt func() (*auth.Credentials, error)

// resolveCredentials fills cfg.API from the first source holding both
// values and returns a short description of that source
func resolveCredentials(cfg *config.Config, store credentialSource, prompt credentialPrompt) (string, error) {
	if cfg.API.APIKey != "" && cfg.API.AuthToken != "" {
		return "configuration", nil
	}

	name := cfg.Auth.Profile
	creds, err := store.Retrieve(name)
	if err != nil && (name == "" || name == auth.DefaultProfile) {
		creds, err = store.RetrieveDefault()
	}
	if err == nil && creds.Valid() {
		cfg.API.APIKey = creds.APIKey
		cfg.API.AuthToken = creds.AuthToken
		return "profile " + creds.Profile, nil
	}

	if prompt == nil {
		return "", errors.New(errors.ErrorTypeConfig,
			"missing credentials: run 'xdigest auth login' or set XDIGEST_API_KEY and XDIGEST_AUTH_TOKEN")
	}

	ui.PrintWarning("No stored credentials found")
	creds, err = prompt()
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeConfig, err, "read credentials")
	}
	if !creds.Valid() {
		return "", errors.New(errors.ErrorTypeConfig, "missing credentials: api key and auth token are required")
	}
	cfg.API.APIKey = creds.APIKey
	cfg.API.AuthToken = creds.AuthToken

	if cfg.Auth.SavePrompted {
		if creds.Profile == "" {
			creds.Profile = name
		}
		if err := store.Store(creds); err != nil {
			ui.PrintWarning("Could not save credentials", err)
		} else {
			ui.PrintSuccess("Credentials saved as profile " + creds.Profile)
		}
	}
	return "prompt", nil
}

// terminalPrompt reads the API key in the clear and the auth token hidden
func terminalPrompt(in *os.File, out io.Writer) credentialPrompt {
	return func() (*auth.Credentials, error) {
		reader := bufio.NewReader(in)

		fmt.Fprint(out, "🔑 API key: ")
		key, err := reader.ReadString('\n')
		if err != nil && key == "" {
			return nil, err
		}

		fmt.Fprint(out, "🔐 Auth token (hidden): ")
		token, err := readSecret(in, reader)
		fmt.Fprintln(out)
		if err != nil {
			return nil, err
		}

		return &auth.Credentials{
			APIKey:    strings.TrimSpace(key),
			AuthToken: strings.TrimSpace(token),
		}, nil
	}
}

// readSecret reads a line without echo when in is a terminal
func readSecret(in *os.File, fallback *bufio.Reader) (string, error) {
	if term.IsTerminal(int(in.Fd())) {
		b, err := term.ReadPassword(int(in.Fd()))
		if err == nil {
			return string(b), nil
		}
	}
	line, err := fallback.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
