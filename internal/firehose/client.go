// Package firehose is the Firehose Consumer: it connects once to a
// jetstream endpoint, decodes events (optionally zstd-compressed), and
// dispatches likes against the shared correlation map.
//
// Grounded on the arabica-social-arabica firehose consumer's
// gorilla/websocket dial + zstd.NewReader + ReadMessage loop, adapted
// per SPEC_FULL.md §4.3's stricter contract: this Client does not
// retry internally (a silent reconnect here would quietly lose the
// cursor held by the caller's retry loop), it does not rotate between
// multiple endpoints, and it answers Pings with Pongs explicitly
// instead of relying on gorilla's default handler so the behavior is
// visible rather than implicit.
package firehose

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"

	"github.com/consfyi/bsky-event-ingester/internal/relayerr"
)

// Client holds one live connection to a jetstream endpoint.
type Client struct {
	conn    *websocket.Conn
	decoder *zstd.Decoder
}

// Options configures a single Connect call.
type Options struct {
	Endpoint           string
	WantedCollections  []string
	Cursor             int64 // microseconds since epoch; 0 means "from now"
	Compress           bool
}

// Connect dials the jetstream endpoint once. The caller owns retrying;
// see cmd/ingester's fixed 1s reconnect loop.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	u, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, relayerr.Malformed(fmt.Errorf("firehose: parse endpoint: %w", err))
	}

	q := u.Query()
	for _, c := range opts.WantedCollections {
		q.Add("wantedCollections", c)
	}
	if opts.Cursor > 0 {
		q.Set("cursor", fmt.Sprintf("%d", opts.Cursor))
	}
	if opts.Compress {
		q.Set("compress", "true")
	}
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, relayerr.Transient(fmt.Errorf("firehose: dial: %w", err))
	}

	var decoder *zstd.Decoder
	if opts.Compress {
		decoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("firehose: new zstd decoder: %w", err)
		}
	}

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
	})

	return &Client{conn: conn, decoder: decoder}, nil
}

// Close tears down the connection and releases the decoder.
func (c *Client) Close() error {
	if c.decoder != nil {
		c.decoder.Close()
	}
	return c.conn.Close()
}

// Next blocks for the next event. A returned error is always fatal to
// this connection; the caller reconnects.
func (c *Client) Next() (Event, error) {
	msgType, data, err := c.conn.ReadMessage()
	if err != nil {
		return Event{}, relayerr.Transient(fmt.Errorf("firehose: read: %w", err))
	}

	if msgType == websocket.BinaryMessage && c.decoder != nil {
		decoded, err := c.decoder.DecodeAll(data, nil)
		if err != nil {
			return Event{}, relayerr.Malformed(fmt.Errorf("firehose: zstd decode: %w", err))
		}
		data = decoded
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, relayerr.Malformed(fmt.Errorf("firehose: unmarshal event: %w", err))
	}
	return ev, nil
}
