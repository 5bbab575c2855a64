package harness

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"syscall"

	"github.com/weiihann/kernelbench/kernel"
)

// ProtocolVersion is bumped whenever Hello, Request or Response change shape.
const ProtocolVersion = 1

// Hello is the first line a worker writes after it starts.
type Hello struct {
	Protocol  int      `json:"protocol"`
	GoVersion string   `json:"go_version"`
	Compiler  string   `json:"compiler"`
	GOOS      string   `json:"goos"`
	GOARCH    string   `json:"goarch"`
	Kernels   []string `json:"kernels"`
}

// Request asks a worker to invoke one kernel.
type Request struct {
	Kernel string   `json:"kernel"`
	Params []uint32 `json:"params"`
}

// Response carries the result of one Request. ElapsedNs covers the kernel
// call only, measured inside the worker.
type Response struct {
	Kernel    string       `json:"kernel"`
	Value     kernel.Value `json:"value"`
	ElapsedNs int64        `json:"elapsed_ns"`
	Error     string       `json:"error,omitempty"`
}

// NewHello describes the running binary.
func NewHello() Hello {
	return Hello{
		Protocol:  ProtocolVersion,
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		GOOS:      runtime.GOOS,
		GOARCH:    runtime.GOARCH,
		Kernels:   kernel.IDs(),
	}
}

var errWorkerClosed = errors.New("worker closed its output")

// client speaks the worker protocol over a pair of streams.
type client struct {
	enc *json.Encoder
	dec *json.Decoder
}

func newClient(w io.Writer, r io.Reader) *client {
	return &client{enc: json.NewEncoder(w), dec: json.NewDecoder(r)}
}

func (c *client) readHello() (Hello, error) {
	var hello Hello
	if err := c.decode(&hello); err != nil {
		return Hello{}, fmt.Errorf("read hello: %w", err)
	}

	if hello.Protocol != ProtocolVersion {
		return Hello{}, fmt.Errorf("protocol version %d, want %d",
			hello.Protocol, ProtocolVersion)
	}

	return hello, nil
}

func (c *client) call(req Request) (Response, error) {
	if err := c.enc.Encode(req); err != nil {
		if closedPipe(err) {
			return Response{}, fmt.Errorf("send request: %w", errWorkerClosed)
		}

		return Response{}, fmt.Errorf("send request: %w", err)
	}

	var resp Response
	if err := c.decode(&resp); err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	if resp.Error != "" {
		return Response{}, fmt.Errorf("worker: %s", resp.Error)
	}

	if resp.Kernel != req.Kernel {
		return Response{}, fmt.Errorf("response for %q, want %q",
			resp.Kernel, req.Kernel)
	}

	return resp, nil
}

func (c *client) decode(v any) error {
	if err := c.dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errWorkerClosed
		}

		return fmt.Errorf("decode JSON: %w", err)
	}

	return nil
}

// closedPipe reports whether a write failed because the worker is gone.
func closedPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed)
}
