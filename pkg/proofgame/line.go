package proofgame

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// Info names one token group in a proof-game filter line: the kind of data
// that follows a "name:" marker until the next marker or end of line.
type Info int

const (
	InfoIllegal Info = iota
	InfoUnknown
	InfoLegal
	InfoForced
	InfoKernel
	InfoExtKernel
	InfoPath
	InfoStatus
	InfoFail
	InfoInfo
	InfoProof
)

var infoNames = map[Info]string{
	InfoIllegal:   "illegal",
	InfoUnknown:   "unknown",
	InfoLegal:     "legal",
	InfoForced:    "forced",
	InfoKernel:    "kernel",
	InfoExtKernel: "extKernel",
	InfoPath:      "path",
	InfoStatus:    "status",
	InfoFail:      "fail",
	InfoInfo:      "info",
	InfoProof:     "proof",
}

func infoFromName(name string) (Info, bool) {
	for info, n := range infoNames {
		if n == name {
			return info, true
		}
	}
	return 0, false
}

// Legality is a line's position in the INITIAL -> KERNEL -> PATH ->
// LEGAL|FAIL|ILLEGAL state machine, derived from which tokens are present.
type Legality int

const (
	Initial Legality = iota
	Kernel
	Path
	Legal
	Fail
	Illegal
)

func (l Legality) String() string {
	switch l {
	case Initial:
		return "INITIAL"
	case Kernel:
		return "KERNEL"
	case Path:
		return "PATH"
	case Legal:
		return "LEGAL"
	case Fail:
		return "FAIL"
	case Illegal:
		return "ILLEGAL"
	}
	return "?"
}

// Line is one proof-game filter input/output record: a FEN plus a set of
// named token groups recording progress made by the filter so far. The
// filter reads a line, advances it by at most one state, and writes it back
// verbatim except for the tokens it updated.
type Line struct {
	FEN  string
	data map[Info][]string
}

func newLine(fen string) *Line {
	return &Line{FEN: fen, data: make(map[Info][]string)}
}

func (l *Line) hasToken(info Info) bool {
	_, ok := l.data[info]
	return ok
}

// TokenData returns the (mutable) token values for info, or nil if none are
// set; it does not add an entry for info.
func (l *Line) TokenData(info Info) []string {
	if l.data == nil {
		l.data = make(map[Info][]string)
	}
	return l.data[info]
}

// SetTokenData replaces the token values for info.
func (l *Line) SetTokenData(info Info, values []string) {
	if l.data == nil {
		l.data = make(map[Info][]string)
	}
	l.data[info] = values
}

func (l *Line) clearToken(info Info) {
	l.SetTokenData(info, nil)
}

func (l *Line) eraseToken(info Info) {
	delete(l.data, info)
}

// GetStatus derives the line's current Legality from the tokens present on
// it, the same way the filter state machine reads it back after every
// write.
func (l *Line) GetStatus() Legality {
	if l.hasToken(InfoIllegal) {
		return Illegal
	}
	if l.hasToken(InfoLegal) && l.hasToken(InfoProof) {
		return Legal
	}
	if l.hasToken(InfoUnknown) {
		if l.hasToken(InfoFail) {
			return Fail
		}
		if l.hasToken(InfoPath) {
			return Path
		}
		if l.hasToken(InfoExtKernel) {
			return Kernel
		}
	}
	return Initial
}

// GetStatusInt reads an integer-valued "name=value" entry from the STATUS
// token group (used for the node budget that escalates between retries),
// returning def if absent.
func (l *Line) GetStatusInt(name string, def int) int {
	var prefix = name + "="
	for _, s := range l.TokenData(InfoStatus) {
		if strings.HasPrefix(s, prefix) {
			if v, err := strconv.Atoi(strings.TrimPrefix(s, prefix)); err == nil {
				return v
			}
		}
	}
	return def
}

// SetStatusInt writes (or replaces) a "name=value" entry in the STATUS
// token group.
func (l *Line) SetStatusInt(name string, value int) {
	var prefix = name + "="
	var status = l.data[InfoStatus]
	for i, s := range status {
		if strings.HasPrefix(s, prefix) {
			status[i] = prefix + strconv.Itoa(value)
			l.data[InfoStatus] = status
			return
		}
	}
	l.data[InfoStatus] = append(status, prefix+strconv.Itoa(value))
}

// ReadLine parses one proof-game filter input line: the first six
// whitespace-separated fields are the FEN, remaining tokens are either a
// "name:" marker or a value belonging to the most recent marker.
func ReadLine(scanner *bufio.Scanner) (*Line, bool, error) {
	if !scanner.Scan() {
		return nil, false, scanner.Err()
	}
	var fields = strings.Fields(strings.TrimSpace(scanner.Text()))
	if len(fields) < 6 {
		return nil, false, fmt.Errorf("proofgame: invalid line format: too few fields")
	}
	var line = newLine(strings.Join(fields[:6], " "))

	var current Info
	var haveCurrent bool
	for _, tok := range fields[6:] {
		if strings.HasSuffix(tok, ":") {
			var name = strings.TrimSuffix(tok, ":")
			var info, ok = infoFromName(name)
			if !ok {
				return nil, false, fmt.Errorf("proofgame: invalid line format: %q", tok)
			}
			current = info
			haveCurrent = true
			line.clearToken(current)
			continue
		}
		if !haveCurrent {
			return nil, false, fmt.Errorf("proofgame: invalid line format: value before any name:")
		}
		line.data[current] = append(line.data[current], tok)
	}
	return line, true, nil
}

// Write serializes the line back out, in the same tokens-per-state order
// the original filter used: ILLEGAL lines print illegal+forced, UNKNOWN
// lines print the in-progress pipeline state, LEGAL lines print legal+proof.
func (l *Line) Write(w *strings.Builder) {
	w.WriteString(l.FEN)

	var printTok = func(info Info) {
		if !l.hasToken(info) {
			return
		}
		w.WriteString(" ")
		w.WriteString(infoNames[info])
		w.WriteString(":")
		for _, s := range l.data[info] {
			w.WriteString(" ")
			w.WriteString(s)
		}
	}

	switch {
	case l.hasToken(InfoIllegal):
		printTok(InfoIllegal)
		printTok(InfoForced)
	case l.hasToken(InfoUnknown):
		printTok(InfoUnknown)
		printTok(InfoKernel)
		printTok(InfoExtKernel)
		printTok(InfoPath)
		printTok(InfoStatus)
		printTok(InfoFail)
		printTok(InfoInfo)
	case l.hasToken(InfoLegal):
		printTok(InfoLegal)
		printTok(InfoProof)
	}
	w.WriteString("\n")
}
