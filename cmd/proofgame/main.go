// Command proofgame runs the proof-game filter over FEN lines: for each
// line it attempts to advance the position one step through the
// INITIAL -> KERNEL -> PATH -> LEGAL/FAIL/ILLEGAL pipeline and writes the
// (possibly updated) line back out.
//
// By default it streams stdin to stdout one line at a time, using the same
// command-loop shape as the engine's interactive protocols. With
// -iterate=<basename> it instead re-runs the whole input repeatedly,
// writing numbered output files (<basename>00.zst, <basename>01.zst, ...)
// until an iteration makes no further progress, matching the filter's batch
// mode; each file is a zstd-compressed blob, since a large run's
// intermediate iterations can dwarf the input FEN list many times over.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/kestrelchess/engine/pkg/proofgame"
	"github.com/kestrelchess/engine/pkg/uci"
)

var (
	flgIterateBase string
	flgRetry       bool
)

func main() {
	flag.StringVar(&flgIterateBase, "iterate", "", "base filename for iterated numbered-output mode")
	flag.BoolVar(&flgRetry, "retry", false, "in iterated mode, re-attempt lines already marked path/status/fail/info")
	flag.Parse()

	var filter = proofgame.NewFilter()

	if flgIterateBase != "" {
		if err := runIterated(filter, flgIterateBase, flgRetry); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	var handler = &filterHandler{filter: filter, out: bufio.NewWriter(os.Stdout)}
	defer handler.out.Flush()
	uci.RunCli(log.New(os.Stderr, "", 0), handler)
}

func runIterated(filter *proofgame.Filter, base string, retry bool) error {
	var fileName = func(iter int) string {
		return fmt.Sprintf("%s%02d.zst", base, iter)
	}
	return filter.FilterFensIterated(os.Stdin,
		func(iter int) (io.WriteCloser, error) {
			var f, err = os.Create(fileName(iter))
			if err != nil {
				return nil, err
			}
			var enc, encErr = zstd.NewWriter(f)
			if encErr != nil {
				f.Close()
				return nil, encErr
			}
			return &zstdWriteCloser{enc: enc, f: f}, nil
		},
		func(iter int) (io.ReadCloser, error) {
			var f, err = os.Open(fileName(iter - 1))
			if err != nil {
				return nil, err
			}
			var dec, decErr = zstd.NewReader(f)
			if decErr != nil {
				f.Close()
				return nil, decErr
			}
			return &zstdReadCloser{dec: dec, f: f}, nil
		},
		retry,
	)
}

// zstdWriteCloser pairs a zstd encoder with the file it writes to, so
// closing one closes both in the right order (flush the compressed frame
// before closing the underlying file).
type zstdWriteCloser struct {
	enc *zstd.Encoder
	f   *os.File
}

func (w *zstdWriteCloser) Write(p []byte) (int, error) { return w.enc.Write(p) }

func (w *zstdWriteCloser) Close() error {
	var encErr = w.enc.Close()
	var fErr = w.f.Close()
	if encErr != nil {
		return encErr
	}
	return fErr
}

// zstdReadCloser pairs a zstd decoder with the file it reads from; the
// decoder itself has no notion of the underlying file's lifecycle.
type zstdReadCloser struct {
	dec *zstd.Decoder
	f   *os.File
}

func (r *zstdReadCloser) Read(p []byte) (int, error) { return r.dec.Read(p) }

func (r *zstdReadCloser) Close() error {
	r.dec.Close()
	return r.f.Close()
}

// filterHandler adapts proofgame.Filter to pkg/uci's CommandHandler
// interface, so the filter can be driven by the same stdin-scanning,
// "quit"-terminated loop the engine's other command-line tools use: each
// input line is one FEN record, advanced by exactly one pipeline stage and
// written back to stdout.
type filterHandler struct {
	filter *proofgame.Filter
	out    *bufio.Writer
}

func (h *filterHandler) Handle(ctx context.Context, commandLine string) error {
	if strings.TrimSpace(commandLine) == "" {
		return nil
	}
	var in = strings.NewReader(commandLine + "\n")
	if err := h.filter.FilterFens(in, h.out); err != nil {
		return err
	}
	return h.out.Flush()
}
