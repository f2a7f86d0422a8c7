package scheduler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/rohmanhakim/scrapeorch/internal/extractor"
)

const (
	searchNavTimeout        = 45 * time.Second
	searchScrollStagnation  = 3
	searchScrollStepCap     = 60
	searchRatingWaitTimeout = 10 * time.Second
	reviewCountRenderDelay  = 1200 * time.Millisecond
)

func navigateSearch(ctx context.Context, searchURL string) error {
	navCtx, cancel := context.WithTimeout(ctx, searchNavTimeout)
	defer cancel()
	return chromedp.Run(navCtx, chromedp.Navigate(searchURL), chromedp.WaitReady("body"))
}

func outerHTMLOf(ctx context.Context) (string, error) {
	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", err
	}
	return html, nil
}

func parseHTMLDoc(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// scrollResultsUntilStable scrolls the listing results panel with
// increasing magnitude and occasional back-scrolls to trigger lazy
// loading, until the panel height stays unchanged for
// searchScrollStagnation consecutive steps or searchScrollStepCap steps
// have run. targetCards is not consulted: scrolling does not stop
// early once that many cards have rendered, and does not continue
// past stagnation to reach it.
// Tolerant of "target closed"/"execution context destroyed" errors,
// which are expected once the stop flag is set mid-scroll.
func scrollResultsUntilStable(ctx context.Context, selectors extractor.Selectors, targetCards int) error {
	var lastHeight int
	stagnant := 0

	for step := 0; step < searchScrollStepCap; step++ {
		magnitude := 800 + step*200
		script := `(() => {
			const panel = document.querySelector(` + strconv.Quote(selectors.ReviewsScrollPanel) + `) || document.querySelector('[role="feed"]');
			if (!panel) return 0;
			panel.scrollTop += ` + strconv.Itoa(magnitude) + `;
			if (` + strconv.Itoa(step%5) + ` === 4) panel.scrollTop -= 200;
			return panel.scrollHeight;
		})()`

		var height int
		if err := chromedp.Run(ctx, chromedp.Evaluate(script, &height)); err != nil {
			if isTolerableScrollError(err) {
				return nil
			}
			return err
		}

		if height == lastHeight {
			stagnant++
			if stagnant >= searchScrollStagnation {
				break
			}
		} else {
			stagnant = 0
			lastHeight = height
		}

		chromedp.Run(ctx, chromedp.Sleep(150*time.Millisecond))
	}

	chromedp.Run(ctx, chromedp.WaitVisible(selectors.Rating, chromedp.ByQueryAll))
	chromedp.Run(ctx, chromedp.Sleep(reviewCountRenderDelay))
	return nil
}

func isTolerableScrollError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "target closed") || strings.Contains(msg, "execution context") || strings.Contains(msg, "context destroyed")
}
