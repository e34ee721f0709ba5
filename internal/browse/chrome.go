package browse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

const signInURL = "https://www.linkedin.com/checkpoint/rm/sign-in-another-account"

// expandScript clicks every collapsed "see more" affordance so truncated
// sections (notably About) are present in the captured HTML. It returns the
// number of elements clicked.
const expandScript = `(() => {
  let clicked = 0;
  const sel = 'button[aria-expanded="false"], [role="button"][aria-expanded="false"]';
  for (const el of document.querySelectorAll(sel)) {
    const text = (el.textContent || '').toLowerCase();
    if (text.includes('see more')) {
      el.click();
      clicked++;
    }
  }
  return clicked;
})()`

// ChromeFetcher loads pages in headless Chrome via the DevTools protocol.
// Each fetch runs in its own browser context, so concurrent fetches for
// distinct URLs do not share state.
type ChromeFetcher struct{}

func (ChromeFetcher) Fetch(ctx context.Context, url string, opts Options) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.pageTimeout())
	defer cancel()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1920, 1080),
	)
	if opts.Login == LoginStoredSession {
		dir := strings.Trim(strings.TrimSpace(opts.UserDataDir), `"'`)
		if dir == "" {
			return "", errors.New("stored_session login requires a user data dir")
		}
		log.Info().Str("dir", dir).Msg("using stored browser session")
		allocOpts = append(allocOpts, chromedp.UserDataDir(dir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if opts.Login == LoginCredentials {
		if err := signIn(browserCtx, opts.Credentials); err != nil {
			// A failed sign-in still leaves public content reachable.
			log.Warn().Err(err).Msg("sign-in failed; continuing without a session")
		}
	}

	log.Info().Str("url", url).Msg("loading profile page")
	if err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(opts.settleDelay()),
	); err != nil {
		return "", fmt.Errorf("load %s: %w", url, err)
	}

	expandCollapsedSections(browserCtx)

	var rendered string
	if err := chromedp.Run(browserCtx,
		chromedp.OuterHTML("html", &rendered, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("capture page content: %w", err)
	}
	return rendered, nil
}

func signIn(ctx context.Context, creds Credentials) error {
	if creds.Email == "" || creds.Password == "" {
		return errors.New("no credentials configured")
	}
	log.Info().Msg("signing in")
	return chromedp.Run(ctx,
		chromedp.Navigate(signInURL),
		chromedp.WaitVisible(`input#username`, chromedp.ByQuery),
		chromedp.SendKeys(`input#username`, creds.Email, chromedp.ByQuery),
		chromedp.SendKeys(`input#password`, creds.Password, chromedp.ByQuery),
		chromedp.Click(`button[aria-label="Sign in"]`, chromedp.ByQuery),
		chromedp.Sleep(5*time.Second),
	)
}

// expandCollapsedSections is best-effort: a profile without collapsed
// sections, or a page that refuses the script, is not a fetch failure.
func expandCollapsedSections(ctx context.Context) {
	var clicked int
	if err := chromedp.Run(ctx, chromedp.Evaluate(expandScript, &clicked)); err != nil {
		log.Warn().Err(err).Msg("expanding collapsed sections failed; continuing")
		return
	}
	if clicked > 0 {
		log.Info().Int("clicked", clicked).Msg("expanded collapsed sections")
		// Give the expansions a moment to render.
		_ = chromedp.Run(ctx, chromedp.Sleep(2*time.Second))
	}
}
