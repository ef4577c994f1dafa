package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"settler/internal/models"

	"github.com/bytedance/sonic"
)

// Client fetches tick windows from the market service over HTTP.
type Client struct {
	base string
	http *http.Client
}

func NewClient(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

type wireTick struct {
	TS     int64   `json:"ts"` // unix millis
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Last   float64 `json:"last"`
	Volume float64 `json:"volume"`
}

// Fetch pulls the (instrument, [start, end]) window, ascending by time.
func (c *Client) Fetch(ctx context.Context, instrument string, start, end time.Time) ([]models.Tick, error) {
	q := url.Values{}
	q.Set("symbol", instrument)
	q.Set("start", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("end", strconv.FormatInt(end.UnixMilli(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/get-candles?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(rb))
	}

	var raw []wireTick
	if err := sonic.Unmarshal(rb, &raw); err != nil {
		return nil, fmt.Errorf("decode ticks: %w", err)
	}

	ticks := make([]models.Tick, 0, len(raw))
	for _, w := range raw {
		ticks = append(ticks, models.Tick{
			Time:   time.UnixMilli(w.TS),
			Bid:    w.Bid,
			Ask:    w.Ask,
			Last:   w.Last,
			Volume: w.Volume,
		})
	}

	// the service promises ascending order, but replay correctness hangs on it
	sort.Slice(ticks, func(i, j int) bool { return ticks[i].Time.Before(ticks[j].Time) })

	return ticks, nil
}
