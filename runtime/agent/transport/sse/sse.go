// Package sse implements transport.Transport over HTTP: RunEvents are pushed
// to the client as Server-Sent Events on a long-lived GET connection, and
// RunRequests arrive out of band on a companion POST endpoint fed into the
// same Transport. Unlike stdio's single framed pipe, the two directions are
// independent HTTP requests, so Receive never blocks Send.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/toolerrors"
	"github.com/agentcore/runtime/runtime/agent/transport"
)

// Transport implements transport.Transport over a single SSE connection and
// its companion request channel. One Transport corresponds to one client
// session's event stream; inbound requests are pushed onto it by Handler.
type Transport struct {
	w       http.ResponseWriter
	flusher http.Flusher
	reqCtx  context.Context

	in chan transport.RunRequest

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

// New binds a Transport to the given SSE connection, writing the response
// headers that put the connection into streaming mode. r's request context
// governs how long the connection may stay open; Receive and Send both
// return once it is cancelled (client disconnect). Returns an error if w
// does not support flushing, which Server-Sent Events requires.
func New(w http.ResponseWriter, r *http.Request) (*Transport, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("sse: response writer does not support flushing")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Transport{
		w:       w,
		flusher: flusher,
		reqCtx:  r.Context(),
		in:      make(chan transport.RunRequest, 16),
		closed:  make(chan struct{}),
	}, nil
}

// SupportsBackgroundReceive implements transport.Transport. The request and
// event directions are separate HTTP connections, so receiving a request
// never waits on the outbound stream.
func (t *Transport) SupportsBackgroundReceive() bool { return true }

// Receive implements transport.Transport, blocking for the next RunRequest
// delivered by Handler or until the SSE connection closes.
func (t *Transport) Receive(ctx context.Context) (transport.RunRequest, error) {
	select {
	case req, ok := <-t.in:
		if !ok {
			return transport.RunRequest{}, &toolerrors.TransportError{Kind: toolerrors.TransportInputClosed}
		}
		return req, nil
	case <-ctx.Done():
		return transport.RunRequest{}, ctx.Err()
	case <-t.reqCtx.Done():
		return transport.RunRequest{}, &toolerrors.TransportError{Kind: toolerrors.TransportInputClosed, Cause: t.reqCtx.Err()}
	case <-t.closed:
		return transport.RunRequest{}, &toolerrors.TransportError{Kind: toolerrors.TransportInputClosed}
	}
}

// Send implements transport.Transport, writing event as a single SSE
// message (`event: <type>` followed by a `data:` line per the spec's JSON
// encoding) and flushing immediately so the client sees it without
// buffering delay.
func (t *Transport) Send(_ context.Context, event *hooks.WireEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("sse: encode event: %w", err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	select {
	case <-t.closed:
		return &toolerrors.TransportError{Kind: toolerrors.TransportOutputClosed}
	case <-t.reqCtx.Done():
		return &toolerrors.TransportError{Kind: toolerrors.TransportOutputClosed, Cause: t.reqCtx.Err()}
	default:
	}

	if _, err := fmt.Fprintf(t.w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
		return &toolerrors.TransportError{Kind: toolerrors.TransportOutputClosed, Cause: err}
	}
	t.flusher.Flush()
	return nil
}

// CloseInput implements transport.Transport, signalling that no further
// requests will be handed to Receive.
func (t *Transport) CloseInput(context.Context) error {
	close(t.in)
	return nil
}

// Close implements transport.Transport, idempotently tearing down both
// directions. The underlying HTTP connection itself closes when the
// handler that called New returns; Close only stops delivering further
// events and requests through this Transport.
func (t *Transport) Close(context.Context) error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

// Handler decodes a RunRequest from an HTTP POST body (the shared JSON wire
// format in transport.WireRequest) and pushes it onto tr's receive queue.
// Register it on the companion endpoint a client uses to send requests
// alongside the GET endpoint that calls New.
func Handler(tr *Transport) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "sse: read request body", http.StatusBadRequest)
			return
		}
		req, err := transport.DecodeWireRequest(body)
		if err != nil {
			http.Error(w, fmt.Sprintf("sse: decode run request: %v", err), http.StatusBadRequest)
			return
		}
		select {
		case tr.in <- req:
			w.WriteHeader(http.StatusAccepted)
		case <-tr.closed:
			http.Error(w, "sse: transport closed", http.StatusGone)
		}
	}
}
