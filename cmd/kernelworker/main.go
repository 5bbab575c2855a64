// Kernelworker answers kernel requests for the native and baseline
// strategies. In serve mode it reads JSONL requests from stdin and writes one
// JSON response per request to stdout; with -once it runs a single kernel.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/weiihann/kernelbench/harness"
)

func main() {
	serve := flag.Bool("serve", true, "answer requests from stdin")
	once := flag.String("once", "", "run one kernel with -params and exit")
	params := flag.String("params", "", "comma-separated parameters for -once")
	version := flag.Bool("version", false, "print the handshake and exit")
	verbose := flag.Bool("v", false, "log every request to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	enc := json.NewEncoder(os.Stdout)

	switch {
	case *version:
		if err := enc.Encode(harness.NewHello()); err != nil {
			fatal("encode hello: %v", err)
		}

	case *once != "":
		values, err := parseParams(*params)
		if err != nil {
			fatal("%v", err)
		}

		resp := harness.Handle(harness.Request{Kernel: *once, Params: values})
		if err := enc.Encode(resp); err != nil {
			fatal("encode response: %v", err)
		}

		if resp.Error != "" {
			os.Exit(1)
		}

	case *serve:
		if err := harness.Serve(os.Stdin, os.Stdout, logger); err != nil {
			fatal("%v", err)
		}

	default:
		fatal("nothing to do: pass -serve, -once or -version")
	}
}

func parseParams(s string) ([]uint32, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	fields := strings.Split(s, ",")
	values := make([]uint32, len(fields))

	for i, f := range fields {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}

		values[i] = uint32(v)
	}

	return values, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "kernelworker: "+format+"\n", args...)
	os.Exit(1)
}
