package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"imagegrab/pkg/config"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/manifest"
	"imagegrab/pkg/metrics"
	"imagegrab/pkg/scraper"
	"imagegrab/pkg/ui"
)

var (
	// Download command flags
	modifiers      []string
	limit          int
	delay          string
	noClobber      bool
	filenameFormat string
	outputDir      string
	workers        int
	timeout        time.Duration
	userAgent      string
	manifestPath   string
	metricsFile    string
	baseURL        string
	notify         bool
)

// downloadCmd represents the download command
var downloadCmd = &cobra.Command{
	Use:   "download [keyword]...",
	Short: "Search for keywords and download the images found",
	Long: `Search the image search engine for every keyword and download each image
link found on the result pages.

With --keywords every keyword is combined with every modifier term, so
"imagegrab download cat dog -k red,blue" runs four searches. Without keyword
arguments the keywords from the configuration file are used.

The command exits with status 0 once all links are processed or the limit
is reached, even when individual downloads fail.`,
	Example: `  # Download every image found for two keywords
  imagegrab download "golden retriever" beagle

  # Combine a keyword with modifiers and stop after 20 images
  imagegrab cat -k "black and white,kitten" --limit 20

  # Name files by content hash and never overwrite
  imagegrab download sunset --filename-format sha256 --no-clobber

  # Four parallel downloads with a 2 second delay between requests
  imagegrab download mountains --workers 4 --delay 2`,
	Args: cobra.ArbitraryArgs,
	RunE: runDownload,
}

func init() {
	rootCmd.AddCommand(downloadCmd)

	addDownloadFlags(downloadCmd.Flags())
	// Also accept them on the root command, which downloads by default
	addDownloadFlags(rootCmd.Flags())
}

func addDownloadFlags(fs *pflag.FlagSet) {
	fs.StringSliceVarP(&modifiers, "keywords", "k", nil, "comma separated modifier terms combined with every keyword")
	fs.IntVarP(&limit, "limit", "l", 0, "stop after this many completed downloads (0 = no limit)")
	fs.StringVarP(&delay, "delay", "d", "", "delay between requests in seconds or as a duration (default 0.1s)")
	fs.BoolVar(&noClobber, "no-clobber", false, "never overwrite existing files")
	fs.StringVar(&filenameFormat, "filename-format", config.FormatBasename, "file naming: basename, sha256 or blake2b")
	fs.StringVarP(&outputDir, "output", "o", "", "output directory (default ./downloads)")
	fs.IntVar(&workers, "workers", 1, "number of concurrent downloads (1-16)")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "timeout for each HTTP request")
	fs.StringVar(&userAgent, "user-agent", "", "User-Agent header (default: rotating desktop Firefox)")
	fs.StringVar(&manifestPath, "manifest", "", "write every outcome to this .json or .yaml file")
	fs.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	fs.StringVar(&baseURL, "base-url", "", "image search endpoint")
	fs.BoolVar(&notify, "notify", false, "send a desktop notification when the run finishes")
}

// collectFlags returns the flags the user actually set, keyed the way
// config.MergeCommandLineFlags expects
func collectFlags(cmd *cobra.Command) (map[string]interface{}, error) {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed

	if changed("keywords") {
		flags["modifiers"] = modifiers
	}
	if changed("limit") {
		flags["limit"] = limit
	}
	if changed("delay") {
		d, err := config.ParseDelay(delay)
		if err != nil {
			return nil, fmt.Errorf("invalid --delay %q: %w", delay, err)
		}
		flags["delay"] = d
	}
	if changed("no-clobber") {
		flags["no-clobber"] = noClobber
	}
	if changed("filename-format") {
		flags["filename-format"] = filenameFormat
	}
	if changed("output") {
		flags["output"] = outputDir
	}
	if changed("workers") {
		flags["workers"] = workers
	}
	if changed("timeout") {
		flags["timeout"] = timeout
	}
	if changed("user-agent") {
		flags["user-agent"] = userAgent
	}
	if changed("manifest") {
		flags["manifest"] = manifestPath
	}
	if changed("metrics-file") {
		flags["metrics-file"] = metricsFile
	}
	if changed("base-url") {
		flags["base-url"] = baseURL
	}
	if changed("log-level") {
		flags["log-level"] = logLevel
	} else if quiet {
		flags["log-level"] = "error"
	}
	if changed("log-file") {
		flags["log-file"] = logFile
	}

	return flags, nil
}

// loadConfig loads the configuration and initializes the global logger
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags, err := collectFlags(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("imagegrab starting")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := scraper.New(cfg)
	if err != nil {
		return err
	}

	reporter := ui.NewReporter(nil)
	s.AddObserver(reporter)

	var collector *metrics.Collector
	if cfg.Metrics.File != "" {
		collector = metrics.New()
		s.AddObserver(collector)
	}

	keywords := args
	if len(keywords) == 0 {
		keywords = cfg.Search.Keywords
	}

	var recorder *manifest.Recorder
	if cfg.Download.Manifest != "" {
		recorder = manifest.NewRecorder(cfg.Download.Manifest, cfg.Download.OutputDirectory, keywords, cfg.Search.Modifiers)
		s.AddObserver(recorder)
	}

	ui.PrintInfo("Output directory", cfg.Download.OutputDirectory)

	result, err := s.Run(ctx, keywords)
	if err != nil {
		return err
	}

	reporter.Complete(result.Summary)

	if recorder != nil {
		if err := recorder.Finish(result.Summary); err != nil {
			log.WithError(err).Error("Failed to save manifest")
			ui.PrintError("Failed to save manifest", err)
		}
	}

	if collector != nil {
		if err := collector.WriteTextfile(cfg.Metrics.File); err != nil {
			log.WithError(err).Error("Failed to write metrics file")
			ui.PrintError("Failed to write metrics file", err)
		}
	}

	if notify {
		if err := ui.NewNotifier().RunComplete(result.Summary); err != nil {
			log.WithError(err).Debug("Desktop notification not delivered")
		}
	}

	if ctx.Err() != nil {
		ui.PrintWarning("Interrupted, partial results kept")
	}

	return nil
}
