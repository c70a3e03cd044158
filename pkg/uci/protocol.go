package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kestrelchess/engine/pkg/chess"
	"github.com/kestrelchess/engine/pkg/engine"
)

// Engine is the subset of *engine.Engine the protocol drives, kept as an
// interface so the protocol can be exercised against a fake in tests.
type Engine interface {
	Prepare()
	Clear()
	Search(ctx context.Context, searchParams engine.SearchParams) engine.SearchInfo
	MultiPVResult() []engine.SearchInfo
	PonderHit()
}

// Protocol implements the line-oriented engine text protocol over stdin and
// stdout: uci, setoption, isready, position, go, stop, ponderhit,
// ucinewgame and quit.
type Protocol struct {
	name         string
	author       string
	version      string
	options      []Option
	engine       Engine
	positions    []chess.Position
	thinking     bool
	engineOutput chan engine.SearchInfo
	cancel       context.CancelFunc
}

func New(name, author, version string, eng Engine, options []Option) *Protocol {
	var initPosition, err = chess.ReadFEN(chess.InitialPositionFEN)
	if err != nil {
		panic(err)
	}
	return &Protocol{
		name:      name,
		author:    author,
		version:   version,
		engine:    eng,
		options:   options,
		positions: []chess.Position{initPosition},
	}
}

func (p *Protocol) Run(logger zerolog.Logger) {
	var commands = make(chan string)

	go func() {
		defer close(commands)
		readCommands(commands)
	}()

	var searchResult engine.SearchInfo
	for {
		select {
		case si, ok := <-p.engineOutput:
			if ok {
				fmt.Println(searchInfoToUci(si))
				searchResult = si
			} else {
				if len(searchResult.MainLine) != 0 {
					printBestMove(searchResult)
				}
				p.thinking = false
				p.cancel = nil
				p.engineOutput = nil
				searchResult = engine.SearchInfo{}
			}
		case commandLine, ok := <-commands:
			if !ok {
				return
			}
			var err = p.handle(commandLine)
			if err != nil {
				logger.Error().Err(err).Str("command", commandLine).Msg("uci command failed")
			}
		}
	}
}

func readCommands(commands chan<- string) {
	var scanner = bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var commandLine = scanner.Text()
		if commandLine == "quit" {
			return
		}
		if commandLine != "" {
			commands <- commandLine
		}
	}
}

func (p *Protocol) handle(commandLine string) error {
	var fields = strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	var commandName = fields[0]
	fields = fields[1:]

	if p.thinking {
		switch commandName {
		case "stop":
			p.cancel()
			return nil
		case "ponderhit":
			p.engine.PonderHit()
			return nil
		}
		return errors.New("search still running")
	}

	var h func(fields []string) error

	switch commandName {
	case "uci":
		h = p.uciCommand
	case "setoption":
		h = p.setOptionCommand
	case "isready":
		h = p.isReadyCommand
	case "position":
		h = p.positionCommand
	case "go":
		h = p.goCommand
	case "ucinewgame":
		h = p.uciNewGameCommand
	case "ponderhit":
		h = p.ponderhitCommand
	}

	if h == nil {
		return errors.New("command not found")
	}

	return h(fields)
}

func (p *Protocol) uciCommand(fields []string) error {
	fmt.Printf("id name %s %s\n", p.name, p.version)
	fmt.Printf("id author %s\n", p.author)
	for _, option := range p.options {
		fmt.Println(option.UciString())
	}
	fmt.Println("uciok")
	return nil
}

func (p *Protocol) setOptionCommand(fields []string) error {
	if len(fields) < 4 {
		return errors.New("invalid setoption arguments")
	}
	var name, value = fields[1], fields[3]
	for _, option := range p.options {
		if strings.EqualFold(option.UciName(), name) {
			return option.Set(value)
		}
	}
	return errors.New("unhandled option")
}

func (p *Protocol) isReadyCommand(fields []string) error {
	p.engine.Prepare()
	fmt.Println("readyok")
	return nil
}

func (p *Protocol) positionCommand(fields []string) error {
	var args = fields
	if len(args) == 0 {
		return errors.New("missing position arguments")
	}
	var token = args[0]
	var fen string
	var movesIndex = findIndexString(args, "moves")
	if token == "startpos" {
		fen = chess.InitialPositionFEN
	} else if token == "fen" {
		if movesIndex == -1 {
			fen = strings.Join(args[1:], " ")
		} else {
			fen = strings.Join(args[1:movesIndex], " ")
		}
	} else {
		return errors.New("unknown position command")
	}
	var pos, err = chess.ReadFEN(fen)
	if err != nil {
		return err
	}
	var positions = []chess.Position{pos}
	if movesIndex >= 0 && movesIndex+1 < len(args) {
		for _, lan := range args[movesIndex+1:] {
			var last = &positions[len(positions)-1]
			var move, merr = chess.ParseLAN(last, lan)
			if merr != nil {
				return merr
			}
			var next, ok = last.MakeMove(move)
			if !ok {
				return errors.New("illegal move in position command")
			}
			positions = append(positions, next)
		}
	}
	p.positions = positions
	return nil
}

func (p *Protocol) goCommand(fields []string) error {
	var limits, searchMoves, err = parseGo(&p.positions[len(p.positions)-1], fields)
	if err != nil {
		return err
	}
	var ctx, cancel = context.WithCancel(context.Background())
	p.cancel = cancel
	p.thinking = true
	p.engineOutput = make(chan engine.SearchInfo, 3)
	go func() {
		var searchResult = p.engine.Search(ctx, engine.SearchParams{
			Positions:   p.positions,
			Limits:      limits,
			SearchMoves: searchMoves,
			Progress: func(si engine.SearchInfo) {
				select {
				case p.engineOutput <- si:
				default:
				}
			},
		})
		for _, pv := range p.engine.MultiPVResult() {
			p.engineOutput <- pv
		}
		p.engineOutput <- searchResult
		close(p.engineOutput)
	}()
	return nil
}

func (p *Protocol) uciNewGameCommand(fields []string) error {
	p.engine.Clear()
	return nil
}

func (p *Protocol) ponderhitCommand(fields []string) error {
	return errors.New("not pondering")
}

func printBestMove(si engine.SearchInfo) {
	if len(si.MainLine) == 1 {
		fmt.Printf("bestmove %v\n", si.MainLine[0])
		return
	}
	fmt.Printf("bestmove %v ponder %v\n", si.MainLine[0], si.MainLine[1])
}

func searchInfoToUci(si engine.SearchInfo) string {
	var sb = &strings.Builder{}
	fmt.Fprintf(sb, "info depth %v", si.Depth)
	if si.MultiPV > 1 {
		fmt.Fprintf(sb, " multipv %v", si.MultiPV)
	}
	if si.Score.Mate != 0 {
		fmt.Fprintf(sb, " score mate %v", si.Score.Mate)
	} else {
		fmt.Fprintf(sb, " score cp %v", si.Score.Centipawns)
	}
	var timeMs = si.Time.Milliseconds()
	var nps = si.Nodes * 1000 / (timeMs + 1)
	fmt.Fprintf(sb, " nodes %v time %v nps %v", si.Nodes, timeMs, nps)
	if len(si.MainLine) != 0 {
		fmt.Fprintf(sb, " pv")
		for _, move := range si.MainLine {
			sb.WriteString(" ")
			sb.WriteString(move.String())
		}
	}
	return sb.String()
}

func parseGo(p *chess.Position, args []string) (result engine.LimitsType, searchMoves []chess.Move, err error) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "ponder":
			result.Ponder = true
		case "wtime":
			result.WhiteTime, i, err = parseIntArg(args, i)
		case "btime":
			result.BlackTime, i, err = parseIntArg(args, i)
		case "winc":
			result.WhiteIncrement, i, err = parseIntArg(args, i)
		case "binc":
			result.BlackIncrement, i, err = parseIntArg(args, i)
		case "movestogo":
			result.MovesToGo, i, err = parseIntArg(args, i)
		case "depth":
			result.Depth, i, err = parseIntArg(args, i)
		case "nodes":
			result.Nodes, i, err = parseIntArg(args, i)
		case "mate":
			result.Mate, i, err = parseIntArg(args, i)
		case "movetime":
			result.MoveTime, i, err = parseIntArg(args, i)
		case "infinite":
			result.Infinite = true
		case "searchmoves":
			for i+1 < len(args) {
				var move, merr = chess.ParseLAN(p, args[i+1])
				if merr != nil {
					break
				}
				searchMoves = append(searchMoves, move)
				i++
			}
		}
		if err != nil {
			return
		}
	}
	return
}

func parseIntArg(args []string, i int) (int, int, error) {
	if i+1 >= len(args) {
		return 0, i, errors.New("missing argument value")
	}
	var v, err = strconv.Atoi(args[i+1])
	return v, i + 1, err
}

func findIndexString(slice []string, value string) int {
	for i, v := range slice {
		if v == value {
			return i
		}
	}
	return -1
}
