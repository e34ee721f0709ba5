// Package app wires the fetch, normalize, extract, and draft stages into a
// single pipeline run and exposes the CLI and HTTP entry points' shared
// plumbing.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/linkmailer/linkmail/internal/browse"
	"github.com/linkmailer/linkmail/internal/draft"
	"github.com/linkmailer/linkmail/internal/extract"
	"github.com/linkmailer/linkmail/internal/llm"
	"github.com/linkmailer/linkmail/internal/normalize"
	"github.com/linkmailer/linkmail/internal/profile"
)

// User-facing messages reused from the original tool's output so consumers
// matching on them keep working.
const (
	msgInvalidURL   = "Invalid LinkedIn URL format"
	msgFetchFailed  = "Failed to fetch profile HTML"
	msgInsufficient = "Unable to extract profile information. Profile may require login or is not public."
	warnNoAbout     = "About section not found, email generated from available data"
)

// Pipeline runs one profile end to end. It holds no per-run state, so a
// single Pipeline is safe to use concurrently for distinct URLs.
type Pipeline struct {
	Fetcher   browse.Fetcher
	Extractor *extract.Extractor
	Drafter   *draft.Drafter
	// FetchOptions is passed unchanged to the fetcher.
	FetchOptions browse.Options
	// DebugTextPath, when non-empty, receives the normalized page text of
	// the most recent run. Best-effort tooling, not part of the contract.
	DebugTextPath string
}

// NewPipeline assembles the production pipeline for cfg using client as the
// model backend.
func NewPipeline(cfg Config, client llm.Client) *Pipeline {
	return &Pipeline{
		Fetcher: newFetcher(cfg),
		Extractor: &extract.Extractor{
			Client:      client,
			MaxAttempts: cfg.MaxRetries,
			Delay:       cfg.RetryDelay,
		},
		Drafter: &draft.Drafter{
			Client:      client,
			MaxAttempts: cfg.MaxRetries,
			Delay:       cfg.RetryDelay,
		},
		FetchOptions: browse.Options{
			Headless: cfg.Headless,
			Login:    browse.LoginMode(cfg.LoginMethod),
			Credentials: browse.Credentials{
				Email:    cfg.LinkedInEmail,
				Password: cfg.LinkedInPassword,
			},
			UserDataDir: cfg.ChromeUserDataDir,
			PageTimeout: cfg.PageTimeout,
		},
		DebugTextPath: cfg.DebugTextPath,
	}
}

// newFetcher selects the page fetcher. Anything but an explicit "static"
// gets the browser, since most profile pages need rendering and a session.
func newFetcher(cfg Config) browse.Fetcher {
	if cfg.Fetcher == FetcherStatic {
		return &browse.StaticFetcher{MaxAttempts: cfg.MaxRetries}
	}
	return browse.ChromeFetcher{}
}

// Run executes the pipeline for one URL. It never returns an error: every
// failure mode maps onto the uniform ResultRecord shape. Drafting failures
// downgrade the run to partial success instead of discarding the profile.
func (p *Pipeline) Run(ctx context.Context, url string) profile.ResultRecord {
	log.Info().Str("url", url).Msg("processing profile")

	if !profile.ValidURL(url) {
		log.Error().Str("url", url).Msg("invalid profile URL")
		return profile.Failed(msgInvalidURL, url)
	}

	markup, err := p.Fetcher.Fetch(ctx, url, p.FetchOptions)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("fetch failed")
		return profile.Failed(fmt.Sprintf("%s: %v", msgFetchFailed, err), url)
	}
	if strings.TrimSpace(markup) == "" {
		log.Error().Str("url", url).Msg("fetcher returned empty content")
		return profile.Failed(msgFetchFailed, url)
	}

	text := normalize.Text(markup)
	log.Debug().Int("chars", len(text)).Msg("normalized page text")
	p.dumpDebugText(text)

	rec, err := p.Extractor.Extract(ctx, text, url)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("extraction failed")
		return profile.Failed(err.Error(), url)
	}
	if rec.Name == nil {
		// A record without a name cannot be used downstream.
		log.Warn().Str("url", url).Msg("profile name not found")
		return profile.Failed(msgInsufficient, url)
	}
	logProfile(rec)

	email, derr := p.Drafter.Draft(ctx, rec)
	if derr != nil {
		log.Error().Err(derr).Str("url", url).Msg("drafting failed; returning profile without email")
		return profile.ResultRecord{
			Name:    rec.Name,
			Title:   rec.Title,
			Company: rec.Company,
			About:   rec.About,
			Error:   derr.Error(),
			Status:  profile.StatusPartial,
		}
	}

	result := profile.ResultRecord{
		Name:    rec.Name,
		Title:   rec.Title,
		Company: rec.Company,
		About:   rec.About,
		Email:   &email,
	}
	if rec.About == nil {
		result.Warning = warnNoAbout
	}
	log.Info().Str("url", url).Msg("profile processed")
	return result
}

func (p *Pipeline) dumpDebugText(text string) {
	if p.DebugTextPath == "" {
		return
	}
	if err := os.WriteFile(p.DebugTextPath, []byte(text), 0o644); err != nil {
		log.Warn().Err(err).Str("path", p.DebugTextPath).Msg("could not save normalized text")
		return
	}
	log.Info().Str("path", p.DebugTextPath).Msg("saved normalized text")
}

func logProfile(rec profile.Record) {
	ev := log.Info().Str("name", strDeref(rec.Name))
	if rec.Title != nil {
		ev = ev.Str("title", *rec.Title)
	}
	if rec.Company != nil {
		ev = ev.Str("company", *rec.Company)
	}
	ev.Bool("about", rec.About != nil).Msg("profile extracted")
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
