// Package resumetrigger listens for a named Socket.IO event and, when it
// arrives carrying a JSON-encoded snapshot payload, calls a caller-supplied
// resume function — a concrete realization of "an external event triggers
// resumption" (§1). It is a collaborator, never imported by the core
// engine packages.
//
// Grounded on specialistvlad-burstgridgo's modules/socketio_client and
// modules/socketio_request: the same socket.NewManager/manager.Socket
// connection dance, and the same Once/On(types.EventName(...)) listener
// registration idiom, generalized from a one-shot request/response runner
// to a long-lived listener that feeds flowdag.Resume.
package resumetrigger

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"

	"github.com/zishang520/engine.io-client-go/transports"
	engineio "github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/flowdag/flowdag/internal/snapshot"
)

// ResumeFunc is called with the snapshot decoded from the triggering
// event's payload; the caller is expected to build a flowdag.Resume call
// around it.
type ResumeFunc func(ctx context.Context, snap *snapshot.Snapshot)

// Listener connects to a Socket.IO server and invokes a ResumeFunc every
// time a configured event name fires.
type Listener struct {
	client *socket.Socket
}

// Connect dials url (insecureSkipVerify disables TLS verification, for
// local development servers only) and returns a Listener ready for On.
func Connect(ctx context.Context, url string, namespace string, insecureSkipVerify bool) (*Listener, error) {
	opts := socket.DefaultOptions()
	if insecureSkipVerify {
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(engineio.NewSet(transports.WebSocket))

	manager := socket.NewManager(url, opts)
	client := manager.Socket(namespace, opts)

	connected := make(chan error, 1)
	client.Once(engineio.EventName("connect"), func(...any) { connected <- nil })
	client.Once(engineio.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				connected <- err
				return
			}
		}
		connected <- fmt.Errorf("resumetrigger: connect_error")
	})

	client.Connect()
	select {
	case err := <-connected:
		if err != nil {
			client.Disconnect()
			return nil, fmt.Errorf("resumetrigger: connect: %w", err)
		}
	case <-ctx.Done():
		client.Disconnect()
		return nil, ctx.Err()
	}
	return &Listener{client: client}, nil
}

// On registers fn to be called with the decoded snapshot every time
// eventName fires, for as long as the connection lives.
func (l *Listener) On(eventName string, fn ResumeFunc) {
	l.client.On(engineio.EventName(eventName), func(data ...any) {
		if len(data) == 0 {
			return
		}
		payload, err := json.Marshal(data[0])
		if err != nil {
			return
		}
		var snap snapshot.Snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return
		}
		fn(context.Background(), &snap)
	})
}

// Close disconnects the underlying socket.
func (l *Listener) Close() {
	l.client.Disconnect()
}
