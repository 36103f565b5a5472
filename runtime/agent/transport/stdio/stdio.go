// Package stdio implements transport.Transport over a pair of byte streams
// (typically a process's stdin/stdout) using Content-Length framed JSON, the
// same framing idiom the teacher's MCP stdio caller uses for its
// request/response pairs.
package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/toolerrors"
	"github.com/agentcore/runtime/runtime/agent/transport"
)

// Transport implements transport.Transport over reader/writer, always
// reporting SupportsBackgroundReceive() == false: a single stdio pair can't
// safely interleave an interactive approval prompt with concurrent receive.
type Transport struct {
	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
}

// New wraps r/w as a stdio transport.Transport.
func New(r io.Reader, w io.Writer) *Transport {
	return &Transport{reader: bufio.NewReader(r), writer: w, closed: make(chan struct{})}
}

// SupportsBackgroundReceive implements transport.Transport.
func (t *Transport) SupportsBackgroundReceive() bool { return false }

// Receive implements transport.Transport, blocking for the next framed
// RunRequest.
func (t *Transport) Receive(ctx context.Context) (transport.RunRequest, error) {
	type result struct {
		req transport.RunRequest
		err error
	}
	ch := make(chan result, 1)
	go func() {
		frame, err := readFrame(t.reader)
		if err != nil {
			ch <- result{err: &toolerrors.TransportError{Kind: toolerrors.TransportInputClosed, Cause: err}}
			return
		}
		req, err := transport.DecodeWireRequest(frame)
		if err != nil {
			ch <- result{err: fmt.Errorf("stdio: decode run request: %w", err)}
			return
		}
		ch <- result{req: req}
	}()

	select {
	case res := <-ch:
		return res.req, res.err
	case <-ctx.Done():
		return transport.RunRequest{}, ctx.Err()
	case <-t.closed:
		return transport.RunRequest{}, &toolerrors.TransportError{Kind: toolerrors.TransportInputClosed}
	}
}

// Send implements transport.Transport, writing a single Content-Length
// framed JSON message per event.
func (t *Transport) Send(_ context.Context, event *hooks.WireEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("stdio: encode event: %w", err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	select {
	case <-t.closed:
		return &toolerrors.TransportError{Kind: toolerrors.TransportOutputClosed}
	default:
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))
	if _, err := io.WriteString(t.writer, header); err != nil {
		return &toolerrors.TransportError{Kind: toolerrors.TransportOutputClosed, Cause: err}
	}
	if _, err := t.writer.Write(data); err != nil {
		return &toolerrors.TransportError{Kind: toolerrors.TransportOutputClosed, Cause: err}
	}
	return nil
}

// CloseInput implements transport.Transport. Since stdio only models an
// external close through Receive's error return, this is a no-op; the next
// Receive call will surface the underlying stream's EOF as InputClosed.
func (t *Transport) CloseInput(context.Context) error { return nil }

// Close implements transport.Transport, idempotently tearing down both
// directions.
func (t *Transport) Close(context.Context) error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

func readFrame(reader *bufio.Reader) ([]byte, error) {
	length := -1
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if length < 0 {
				continue
			}
			break
		}
		if after, ok := strings.CutPrefix(strings.ToLower(line), "content-length:"); ok {
			n, err := strconv.Atoi(strings.TrimSpace(after))
			if err != nil {
				return nil, err
			}
			length = n
		}
	}
	if length < 0 {
		return nil, errors.New("stdio: content-length header missing")
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
