package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/linkmailer/linkmail/internal/app"
	"github.com/linkmailer/linkmail/internal/profile"
)

const usage = `Usage: linkmail [flags] <linkedin_profile_url>
Example: linkmail https://www.linkedin.com/in/johndoe

Run "linkmail -h" for all flags.`

// Exit codes follow the original tool: 0 full success, 1 any failure,
// 130 interrupted.
const (
	exitOK        = 0
	exitFailure   = 1
	exitInterrupt = 130
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		envFile    string
		configPath string
		provider   string
		fetcher    string
		loginMode  string
		outputPath string
		debugText  string
		serveAddr  string
		timeout    time.Duration
		verbose    bool
	)
	flag.StringVar(&envFile, "env", "", "Additional dotenv file to load (\".env\" is always tried)")
	flag.StringVar(&configPath, "config", "", "Optional YAML or JSON config file")
	flag.StringVar(&provider, "provider", "", "Model backend: auto, openai, azure, or gemini")
	flag.StringVar(&fetcher, "fetcher", "", "Page fetcher: chrome or static")
	flag.StringVar(&loginMode, "login", "", "Login mode: none, credentials, or stored_session")
	flag.StringVar(&outputPath, "out", "linkmail-result.json", "Path for the result JSON artifact; empty disables")
	flag.StringVar(&debugText, "debug.text", "", "Path to dump the normalized page text")
	flag.StringVar(&serveAddr, "serve", "", "Run the HTTP API on this address instead of a one-shot run")
	flag.DurationVar(&timeout, "timeout", 0, "Page load timeout (default 60s)")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := app.LoadDotenv(".env", envFile); err != nil {
		log.Error().Err(err).Msg("loading env files failed")
		os.Exit(exitFailure)
	}

	cfg := app.ConfigFromEnv()
	if provider != "" {
		cfg.Provider = strings.ToLower(provider)
	}
	if fetcher != "" {
		cfg.Fetcher = strings.ToLower(fetcher)
	}
	if loginMode != "" {
		cfg.LoginMethod = strings.ToLower(loginMode)
	}
	cfg.OutputPath = outputPath
	if debugText != "" {
		cfg.DebugTextPath = debugText
	}
	if timeout > 0 {
		cfg.PageTimeout = timeout
	}
	if verbose {
		cfg.Verbose = true
	}
	cfg.ServeAddr = serveAddr

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("config file failed")
			os.Exit(exitFailure)
		}
		app.ApplyFileConfig(&cfg, fc)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ServeAddr != "" {
		srv := &app.Server{Base: cfg}
		if err := srv.ListenAndServe(ctx, cfg.ServeAddr); err != nil {
			log.Error().Err(err).Msg("server failed")
			os.Exit(exitFailure)
		}
		return
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(exitFailure)
	}
	url := flag.Arg(0)

	result, err := runOnce(ctx, cfg, url)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("interrupted")
			os.Exit(exitInterrupt)
		}
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitFailure)
	}

	banner := strings.Repeat("=", 70)
	fmt.Println("\n" + banner)
	fmt.Println("RESULT:")
	fmt.Println(banner)
	fmt.Print(app.FormatResult(result))
	fmt.Println(banner)

	if ctx.Err() != nil {
		os.Exit(exitInterrupt)
	}
	os.Exit(exitCode(result))
}

func runOnce(ctx context.Context, cfg app.Config, url string) (profile.ResultRecord, error) {
	client, err := app.NewClient(ctx, cfg)
	if err != nil {
		return profile.ResultRecord{}, fmt.Errorf("configure model backend: %w", err)
	}
	p := app.NewPipeline(cfg, client)
	result := p.Run(ctx, url)
	app.WriteResult(cfg.OutputPath, result)
	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, nil
}

// exitCode maps a result onto the process exit code. Partial success still
// exits nonzero because the caller did not get an email.
func exitCode(result profile.ResultRecord) int {
	if result.Error != "" || result.Status != "" {
		return exitFailure
	}
	return exitOK
}
