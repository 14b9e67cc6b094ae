// Package main provides the CLI entry point for wikipreview.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/wikipreview/pkg/adapters/chromehost"
	"github.com/user/wikipreview/pkg/adapters/filesink"
	"github.com/user/wikipreview/pkg/adapters/ggrenderer"
	"github.com/user/wikipreview/pkg/adapters/logger"
	"github.com/user/wikipreview/pkg/adapters/nullsink"
	"github.com/user/wikipreview/pkg/adapters/osfilesystem"
	"github.com/user/wikipreview/pkg/adapters/themedoc"
	"github.com/user/wikipreview/pkg/adapters/wikicontent"
	"github.com/user/wikipreview/pkg/config"
	"github.com/user/wikipreview/pkg/ports"
	"github.com/user/wikipreview/pkg/preview"
	"github.com/user/wikipreview/pkg/summarizer"
	"github.com/user/wikipreview/pkg/wikipreview"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "wikipreview",
		Usage:   l10n.T("Generate and cache themed article previews"),
		Version: version,
		Description: l10n.T("wikipreview renders a wiki article and its home feed under every reading theme, " +
			"and keeps the thumbnails in a memory and disk cache."),
		Flags: globalFlags(),
		Commands: []*cli.Command{
			{
				Name:   "generate",
				Usage:  l10n.T("Generate every preview permutation for a theme"),
				Flags:  append(chromeFlags(), generateFlags()...),
				Action: runGenerate,
			},
			{
				Name:      "get",
				Usage:     l10n.T("Render one preview and save it as PNG"),
				ArgsUsage: "OUTPUT.png",
				Flags:     append(chromeFlags(), getFlags()...),
				Action:    runGet,
			},
			{
				Name:   "clear",
				Usage:  l10n.T("Remove every cached preview"),
				Action: runClear,
			},
			{
				Name:   "prune",
				Usage:  l10n.T("Remove cached previews of other versions"),
				Action: runPrune,
			},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, l10n.T("Interrupted, shutting down..."))
		cancel()
	}()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Category: l10n.T("Configuration"), Usage: l10n.T("YAML configuration file"), EnvVars: []string{"WIKIPREVIEW_CONFIG"}},
		&cli.StringFlag{Name: "cache-dir", Category: l10n.T("Configuration"), Usage: l10n.T("Root directory of the disk cache")},
		&cli.StringFlag{Name: "app-version", Category: l10n.T("Configuration"), Usage: l10n.T("App version embedded in cache keys")},
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Category: l10n.T("Logging"), Usage: l10n.T("Log level (debug, info, warn, error)")},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Category: l10n.T("Logging"), Usage: l10n.T("Suppress all log output")},
		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Category: l10n.T("Debug"), Usage: l10n.T("Enable debug output")},
		&cli.StringFlag{Name: "debug-dir", Category: l10n.T("Debug"), Usage: l10n.T("Directory for debug output")},
	}
}

func chromeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "chrome-path", Category: l10n.T("Browser"), Usage: l10n.T("Path to Chrome executable")},
		&cli.BoolFlag{Name: "no-headless", Category: l10n.T("Browser"), Usage: l10n.T("Run browser in non-headless mode")},
		&cli.StringFlag{Name: "title", Category: l10n.T("Content"), Usage: l10n.T("Article shown in table previews")},
	}
}

func generateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "theme", Aliases: []string{"t"}, Category: l10n.T("Previews"), Usage: l10n.T("Active reading theme")},
		&cli.StringSliceFlag{Name: "themes", Category: l10n.T("Previews"), Usage: l10n.T("Theme previews to generate")},
		&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Category: l10n.T("Output"), Usage: l10n.T("Output execution summary to file (Markdown for .md, plain text otherwise)")},
	}
}

func getFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: "theme", Category: l10n.T("Previews"), Usage: l10n.T("Preview kind (theme, table)")},
		&cli.StringFlag{Name: "theme", Aliases: []string{"t"}, Value: preview.ThemeLight, Category: l10n.T("Previews"), Usage: l10n.T("Reading theme")},
		&cli.BoolFlag{Name: "collapsed", Category: l10n.T("Previews"), Usage: l10n.T("Collapse tables (table previews only)")},
	}
}

// env is everything a command needs.
type env struct {
	cfg    config.Config
	log    ports.Logger
	fs     *osfilesystem.FileSystem
	images *ggrenderer.Renderer
	svc    *wikipreview.Service
	last   *summarizer.Summary
}

// setup loads the configuration, applies flag overrides and builds the service.
func setup(c *cli.Context) (*env, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	applyFlags(c, &cfg)

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(cfg.Level())
	}

	svcCfg, err := cfg.ToServiceConfig()
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: log, fs: osfilesystem.New(), images: ggrenderer.New()}

	var sink ports.DebugSink = nullsink.New()
	if cfg.Debug {
		if err := e.fs.MkdirAll(cfg.DebugDir); err != nil {
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, e.fs, e.images)
	}

	e.svc = wikipreview.New(svcCfg, wikipreview.Dependencies{
		Loader:     wikicontent.New(cfg.ContentLoaderConfig()),
		Builder:    themedoc.New(),
		FileSystem: e.fs,
		Images:     e.images,
		Sink:       sink,
		Logger:     log,
		OnSummary:  func(s *summarizer.Summary) { e.last = s },
	})
	return e, nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("cache-dir") {
		cfg.CacheDir = c.String("cache-dir")
	}
	if c.IsSet("app-version") {
		cfg.Version = c.String("app-version")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("chrome-path") {
		cfg.Chrome.Path = c.String("chrome-path")
	}
	if c.IsSet("no-headless") {
		cfg.Chrome.Headless = !c.Bool("no-headless")
	}
	if c.IsSet("title") {
		cfg.ArticleTitle = c.String("title")
	}
	if c.IsSet("themes") {
		cfg.Themes = c.StringSlice("themes")
	}
	if c.IsSet("summary") {
		cfg.Summary = c.String("summary")
	}
	// generate takes the active theme; get names the preview's own theme.
	if c.Command.Name == "generate" && c.IsSet("theme") {
		cfg.Theme = c.String("theme")
	}
}

// launch starts Chrome and attaches it to the service. The returned func
// detaches and closes it.
func (e *env) launch(ctx context.Context) (func(), error) {
	if e.cfg.Chrome.Headless {
		e.log.Info("Launching browser in headless mode")
	} else {
		e.log.Info("Launching browser in visible mode")
	}
	host, err := chromehost.Launch(ctx, e.cfg.ChromeOptions())
	if err != nil {
		return nil, err
	}
	handle := e.svc.Attach(host)
	return func() {
		e.svc.Detach(handle)
		runtime.KeepAlive(handle)
		host.Close()
		e.log.Info("Browser closed")
	}, nil
}

func runGenerate(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.svc.Close()

	closeHost, err := e.launch(c.Context)
	if err != nil {
		return err
	}
	defer closeHost()

	if err := e.svc.Start(c.Context); err != nil {
		return err
	}
	if err := e.svc.Wait(c.Context); err != nil {
		return err
	}

	if e.last == nil {
		return nil
	}
	printSummary(e.last)
	if e.cfg.Summary != "" {
		w := summarizer.NewWriter(e.fs)
		if err := w.Write(e.cfg.Summary, e.last); err != nil {
			e.log.Error("Failed to write summary: %v", err)
		} else {
			e.log.Info("Summary written to %s", e.cfg.Summary)
		}
	}
	if e.last.Outcome != summarizer.OutcomeCompleted {
		return cli.Exit(l10n.F("Generation %s", e.last.Outcome), 2)
	}
	return nil
}

func runGet(c *cli.Context) error {
	output := c.Args().First()
	if output == "" {
		return cli.Exit(l10n.T("Output path argument is required"), 1)
	}
	kind, err := preview.ParseSubjectKind(c.String("kind"))
	if err != nil {
		return err
	}

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.svc.Close()

	closeHost, err := e.launch(c.Context)
	if err != nil {
		return err
	}
	defer closeHost()

	bmp := e.svc.GetPreview(c.Context, kind, c.String("theme"), c.Bool("collapsed"))
	data, err := e.images.EncodeImage(bmp.Image, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	if err := e.fs.WriteFile(filepath.Clean(output), data); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	fmt.Println(l10n.F("Preview saved to %s (%dx%d, %s)", output, bmp.Width(), bmp.Height(), humanize.IBytes(uint64(len(data)))))
	return nil
}

func runClear(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.svc.Close()
	return e.svc.ClearCache()
}

func runPrune(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.svc.Close()

	n, err := e.svc.PruneStale(c.Context)
	if err != nil {
		return err
	}
	fmt.Println(l10n.F("Removed %d stale previews", n))
	return nil
}

func printSummary(s *summarizer.Summary) {
	fmt.Println(l10n.F("Run %s %s in %d ms", s.RunID, s.Outcome, s.Duration().Milliseconds()))
	for _, r := range s.Results {
		fmt.Printf("  %-40s %-9s %d\n", r.Key, r.Status, r.Attempts)
	}
	for _, ci := range s.Caches {
		fmt.Println(l10n.F("  %s cache: %d entries, %s of %s", ci.Kind, ci.Entries,
			humanize.IBytes(uint64(ci.Bytes)), humanize.IBytes(uint64(ci.Budget))))
	}
}
