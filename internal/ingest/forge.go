package ingest

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/patina-dev/patina/internal/types"
)

// ForgeFetcher is the narrow interface a forge CLI subprocess/API client
// is adapted through; the subprocess itself is an out-of-scope external
// collaborator per spec.md §1.
type ForgeFetcher interface {
	FetchIssues(ctx context.Context) ([]byte, error)
	FetchPRs(ctx context.Context) ([]byte, error)
}

// forgeItem mirrors forgeItemPayload's wire shape, shared between
// issues and PRs.
type forgeItem struct {
	Number       int      `json:"number"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	State        string   `json:"state"`
	Labels       []string `json:"labels"`
	LinkedIssues []int    `json:"linked_issues"`
	Comments     int      `json:"comments"`
}

// ForgeIngester paces and retries calls to a ForgeFetcher, converting
// its output into forge.issue/forge.pr Events. The 750ms pacing and
// 3-attempt retry cap match spec.md §5's forge rate limit.
type ForgeIngester struct {
	fetcher ForgeFetcher
	limiter *rate.Limiter
}

func NewForgeIngester(fetcher ForgeFetcher) *ForgeIngester {
	return &ForgeIngester{
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Every(750*time.Millisecond), 1),
	}
}

func (f *ForgeIngester) IngestIssues(ctx context.Context) ([]types.Event, error) {
	return f.ingest(ctx, types.EventForgeIssue, f.fetcher.FetchIssues)
}

func (f *ForgeIngester) IngestPRs(ctx context.Context) ([]types.Event, error) {
	return f.ingest(ctx, types.EventForgePR, f.fetcher.FetchPRs)
}

func (f *ForgeIngester) ingest(ctx context.Context, eventType string, fetch func(context.Context) ([]byte, error)) ([]types.Event, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var raw []byte
	boff := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	err := backoff.Retry(func() error {
		data, err := fetch(ctx)
		if err != nil {
			return err
		}
		raw = data
		return nil
	}, boff)
	if err != nil {
		return nil, err
	}

	var items []forgeItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	now := time.Now()
	var events []types.Event
	for _, it := range items {
		payload, err := json.Marshal(it)
		if err != nil {
			return nil, err
		}
		events = append(events, types.Event{
			EventType: eventType,
			SourceID:  eventType + ":" + strconv.Itoa(it.Number),
			Timestamp: now,
			Data:      payload,
		})
	}
	return events, nil
}
