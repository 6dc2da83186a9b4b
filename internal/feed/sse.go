package feed

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/r3labs/sse/v2"
	"github.com/rs/zerolog/log"

	"github.com/msubham193/iotdashboard/internal/store"
)

// SSESubscriber holds one persistent subscription to the telemetry server's
// push stream at {base}/stream. Messages land on a channel drained by a
// single reader goroutine that calls Store.Ingest sequentially. Reconnection
// after a drop is the client library's default backoff; no policy of our own.
type SSESubscriber struct {
	store     *store.Store
	client    *sse.Client
	events    chan *sse.Event
	connected atomic.Bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSSESubscriber creates a subscriber for the telemetry server at baseURL.
func NewSSESubscriber(baseURL string, st *store.Store) *SSESubscriber {
	s := &SSESubscriber{
		store:  st,
		client: sse.NewClient(baseURL + "/stream"),
		events: make(chan *sse.Event, 64),
	}
	// The client's OnConnect callback fires only once the first event is
	// read off the wire, so a healthy but idle stream would report
	// disconnected forever. Validating the response instead marks the
	// channel up as soon as each subscription attempt is accepted.
	s.client.ResponseValidator = func(c *sse.Client, resp *http.Response) error {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("could not connect to stream: %d", resp.StatusCode)
		}
		s.connected.Store(true)
		log.Info().Str("url", c.URL).Msg("Push channel connected")
		return nil
	}
	s.client.OnDisconnect(func(c *sse.Client) {
		s.connected.Store(false)
		log.Warn().Str("url", c.URL).Msg("Push channel disconnected")
	})
	return s
}

// Start starts the ingest loop and opens the subscription. Connecting is
// asynchronous: the client's own backoff drives the initial attempt and any
// reconnects, and the dashboard stays up (showing disconnected) meanwhile.
func (s *SSESubscriber) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.ingestLoop(ctx)

	go func() {
		if err := s.client.SubscribeChanWithContext(ctx, StreamName, s.events); err != nil {
			log.Error().Err(err).Str("url", s.client.URL).Msg("Push channel subscription failed")
		}
	}()
	return nil
}

func (s *SSESubscriber) ingestLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.events:
			if !ok {
				return
			}
			if len(msg.Event) > 0 && string(msg.Event) != EventName {
				continue
			}
			e, err := decodeEvent(msg.Data)
			if err != nil {
				log.Error().Err(err).Str("payload", string(msg.Data)).Msg("Dropping malformed push message")
				continue
			}
			s.store.Ingest(e)
		}
	}
}

// Connected reports whether the push channel is currently up.
func (s *SSESubscriber) Connected() bool {
	return s.connected.Load()
}

// Close tears the subscription down by cancelling its context, which makes
// the client close the event channel, and waits for the ingest loop to exit.
func (s *SSESubscriber) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.connected.Store(false)
	return nil
}
