package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDecodesAndSorts(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		// second tick first: the client must not trust feed ordering
		_, _ = w.Write([]byte(`[
			{"ts": 1700000001000, "bid": 1.1021, "ask": 1.1024, "last": 1.1022, "volume": 5},
			{"ts": 1700000000000, "bid": 1.1006, "ask": 1.1009, "last": 1.1007, "volume": 3}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	start := time.UnixMilli(1700000000000)
	end := time.UnixMilli(1700000001000)

	ticks, err := c.Fetch(context.Background(), "EURUSD", start, end)

	require.NoError(t, err)
	require.Len(t, ticks, 2)
	assert.True(t, ticks[0].Time.Before(ticks[1].Time))
	assert.InDelta(t, 1.1006, ticks[0].Bid, 1e-9)
	assert.InDelta(t, 1.1024, ticks[1].Ask, 1e-9)
	assert.Contains(t, gotQuery, "symbol=EURUSD")
	assert.Contains(t, gotQuery, "start=1700000000000")
}

func TestFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such instrument", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Fetch(context.Background(), "XXXYYY", time.Now().Add(-time.Hour), time.Now())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// declare more than is written so the client's read fails mid-body
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte(`[{"ts": 1700000000000`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Fetch(context.Background(), "EURUSD", time.Now().Add(-time.Hour), time.Now())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read response")
}

func TestFetchEmptyWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ticks, err := c.Fetch(context.Background(), "EURUSD", time.Now().Add(-time.Hour), time.Now())

	require.NoError(t, err)
	assert.Empty(t, ticks)
}
