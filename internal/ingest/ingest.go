package ingest

import (
	"context"
	"time"

	"settler/internal/models"
	"settler/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

// TickSink is where ingested ticks land; *store.Ticks in production.
type TickSink interface {
	InsertBatch(ctx context.Context, instrument string, ticks []models.Tick) error
}

// Ingester streams live ticks from the exchange feed into the tick history
// table so the "postgres" tick source has data to replay.
type Ingester struct {
	url         string
	instruments []string
	ticks       TickSink

	flushSize     int
	flushInterval time.Duration

	dialer *websocket.Dialer
}

func New(url string, instruments []string, ticks TickSink, flushSize int, flushInterval time.Duration) *Ingester {
	if flushSize <= 0 {
		flushSize = 200
	}
	if flushInterval <= 0 {
		flushInterval = 2 * time.Second
	}
	return &Ingester{
		url:           url,
		instruments:   instruments,
		ticks:         ticks,
		flushSize:     flushSize,
		flushInterval: flushInterval,
		dialer:        &websocket.Dialer{},
	}
}

type feedTick struct {
	TS     int64   `json:"ts"` // unix millis
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Last   float64 `json:"last"`
	Volume float64 `json:"vol"`
}

type feedMsg struct {
	Instrument string     `json:"instId"`
	Data       []feedTick `json:"data"`
}

// Run keeps one connection per process, reconnecting with a short sleep on
// any failure, until ctx ends.
func (g *Ingester) Run(ctx context.Context) {
	msgs := make(chan feedMsg)
	go g.readLoop(ctx, msgs)
	g.consume(ctx, msgs)
}

func (g *Ingester) consume(ctx context.Context, msgs <-chan feedMsg) {
	buf := make(map[string][]models.Tick)
	buffered := 0

	flushTimer := time.NewTicker(g.flushInterval)
	defer flushTimer.Stop()

	flush := func(ctx context.Context) {
		for inst, ticks := range buf {
			if err := g.ticks.InsertBatch(ctx, inst, ticks); err != nil {
				logger.Error("tick flush %s: %v", inst, err)
				continue // keep the buffer, retry on the next flush
			}
			delete(buf, inst)
		}
		buffered = 0
		for _, t := range buf {
			buffered += len(t)
		}
	}

	for {
		select {
		case <-ctx.Done():
			// the run ctx is already cancelled here; the last buffer gets
			// its own deadline so shutdown does not drop it
			fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(fctx)
			cancel()
			return
		case <-flushTimer.C:
			flush(ctx)
		case m := <-msgs:
			for _, d := range m.Data {
				buf[m.Instrument] = append(buf[m.Instrument], models.Tick{
					Time:   time.UnixMilli(d.TS),
					Bid:    d.Bid,
					Ask:    d.Ask,
					Last:   d.Last,
					Volume: d.Volume,
				})
				buffered++
			}
			if buffered >= g.flushSize {
				flush(ctx)
			}
		}
	}
}

func (g *Ingester) readLoop(ctx context.Context, out chan<- feedMsg) {
	args := make([]map[string]string, 0, len(g.instruments))
	for _, id := range g.instruments {
		args = append(args, map[string]string{
			"channel": "ticks",
			"instId":  id,
		})
	}

	for {
		if ctx.Err() != nil {
			return
		}

		logger.Info("feed connect %s, %d instruments", g.url, len(g.instruments))
		conn, _, err := g.dialer.DialContext(ctx, g.url, nil)
		if err != nil {
			logger.Error("feed dial: %v", err)
			time.Sleep(time.Second)
			continue
		}

		sub := map[string]any{
			"op":   "subscribe",
			"args": args,
		}
		if err := conn.WriteJSON(sub); err != nil {
			logger.Error("feed subscribe: %v", err)
			_ = conn.Close()
			continue
		}

		// keepalive ping every 20s, feeds drop silent connections
		stopPing := make(chan struct{})
		go func() {
			t := time.NewTicker(20 * time.Second)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-stopPing:
					return
				case <-t.C:
					_ = conn.WriteJSON(map[string]string{"op": "ping"})
				}
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				logger.Error("feed read: %v", err)
				_ = conn.Close()
				close(stopPing)
				break
			}

			var m feedMsg
			if err := sonic.Unmarshal(msg, &m); err != nil || len(m.Data) == 0 {
				continue // pong / subscribe ack
			}

			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case out <- m:
			}
		}
	}
}
