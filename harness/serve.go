package harness

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/weiihann/kernelbench/kernel"
)

const maxRequestBytes = 64 * 1024

// Serve runs the worker side of the protocol: it writes a Hello, then answers
// one Request per input line until r is exhausted. Kernel failures are
// reported in the Response; only I/O errors end the loop early.
func Serve(r io.Reader, w io.Writer, logger *slog.Logger) error {
	out := bufio.NewWriter(w)
	enc := json.NewEncoder(out)

	send := func(v any) error {
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode: %w", err)
		}

		return out.Flush()
	}

	if err := send(NewHello()); err != nil {
		return fmt.Errorf("send hello: %w", err)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxRequestBytes)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var req Request

		resp := Response{}
		if err := json.Unmarshal(line, &req); err != nil {
			resp.Error = fmt.Sprintf("decode request: %v", err)
		} else {
			resp = Handle(req)
		}

		if resp.Error != "" {
			logger.Warn("request failed",
				slog.String("kernel", req.Kernel),
				slog.String("error", resp.Error),
			)
		} else {
			logger.Debug("request served",
				slog.String("kernel", req.Kernel),
				slog.Duration("elapsed", time.Duration(resp.ElapsedNs)),
			)
		}

		if err := send(resp); err != nil {
			return fmt.Errorf("send response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read requests: %w", err)
	}

	return nil
}

// Handle answers a single request in the current process.
func Handle(req Request) Response {
	resp := Response{Kernel: req.Kernel}

	k, err := kernel.Lookup(req.Kernel)
	if err != nil {
		resp.Error = err.Error()

		return resp
	}

	if err := k.Check(req.Params); err != nil {
		resp.Error = err.Error()

		return resp
	}

	value, elapsed, err := Measure(k, req.Params)
	if err != nil {
		resp.Error = err.Error()

		return resp
	}

	resp.Value = value
	resp.ElapsedNs = elapsed.Nanoseconds()

	return resp
}
