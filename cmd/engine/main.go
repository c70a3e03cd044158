package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/kestrelchess/engine/pkg/engine"
	"github.com/kestrelchess/engine/pkg/eval"
	"github.com/kestrelchess/engine/pkg/uci"
)

const (
	name   = "Kestrel"
	author = "kestrelchess"
)

var (
	versionName = "dev"
	flgLogLevel string
)

func main() {
	flag.StringVar(&flgLogLevel, "loglevel", "info", "zerolog level: debug, info, warn, error")
	flag.Parse()

	var level, err = zerolog.ParseLevel(flgLogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	logger.Info().
		Str("version", versionName).
		Str("goVersion", runtime.Version()).
		Int("numCPU", runtime.NumCPU()).
		Msg(name + " starting")

	var eng = engine.NewEngine(eval.NewService)

	var protocol = uci.New(name, author, versionName, eng,
		[]uci.Option{
			&uci.IntOption{Name: "Hash", Min: 1, Max: 1 << 16, Value: &eng.Options.Hash},
			&uci.IntOption{Name: "Threads", Min: 1, Max: runtime.NumCPU(), Value: &eng.Options.Threads},
			&uci.IntOption{Name: "MultiPV", Min: 1, Max: 16, Value: &eng.Options.MultiPV},
			&uci.BoolOption{Name: "Ponder", Value: &eng.Options.Ponder},
			&uci.IntOption{Name: "Strength", Min: 0, Max: 1000, Value: &eng.Options.Strength},
			&uci.BoolOption{Name: "AspirationWindows", Value: &eng.Options.AspirationWindows},
			&uci.BoolOption{Name: "NullMovePruning", Value: &eng.Options.NullMovePruning},
			&uci.BoolOption{Name: "ReverseFutility", Value: &eng.Options.ReverseFutility},
			&uci.BoolOption{Name: "Probcut", Value: &eng.Options.Probcut},
			&uci.BoolOption{Name: "SingularExt", Value: &eng.Options.SingularExt},
			&uci.BoolOption{Name: "CheckExt", Value: &eng.Options.CheckExt},
			&uci.BoolOption{Name: "Lmp", Value: &eng.Options.Lmp},
			&uci.BoolOption{Name: "Futility", Value: &eng.Options.Futility},
			&uci.BoolOption{Name: "See", Value: &eng.Options.See},
		},
	)
	protocol.Run(logger)
}
