package ppmtext

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/perf-analysis/ppmc/internal/ppm"
)

// Options controls weight capping during parse, mirroring
// MParser_init's cap_val_com/cap_val_cal parameters.
type Options struct {
	// CapCalc caps calc-task weights at this value; a negative CapCalc
	// means no cap (the original substitutes DBL_MAX).
	CapCalc float64
	// CapCom caps com-task weights at this value; negative means no cap.
	CapCom float64
}

// DefaultOptions applies no weight capping.
func DefaultOptions() Options {
	return Options{CapCalc: -1, CapCom: -1}
}

func (o Options) capCalc() float64 {
	if o.CapCalc < 0 {
		return math.MaxFloat64
	}
	return o.CapCalc
}

func (o Options) capCom() float64 {
	if o.CapCom < 0 {
		return math.MaxFloat64
	}
	return o.CapCom
}

// Parse reads the §6 textual task-table format from r and returns a
// ppm.Table ready for ppm.BuildGraph. Grounded on
// original_source/model_parser.c's MParser_init (size/head discovery pass)
// followed by MParser_parse (field extraction pass) — two passes over the
// same source because the table must be allocated to tnoMax+1 entries
// before any task can be written into it by index.
func Parse(r io.Reader, opts Options) (*ppm.Table, error) {
	raw, err := readAllLines(r)
	if err != nil {
		return nil, ppm.IOErr("reading task table source", err)
	}
	lines := splitLines(raw)

	tnoMax := -1
	tnoMin := -1
	for _, ln := range lines {
		tno, err := strconv.Atoi(ln.tokens[0])
		if err != nil {
			return nil, ppm.ParseErr(fmt.Sprintf("line %d: malformed task number %q", ln.no, ln.tokens[0]))
		}
		if tnoMax < 0 || tno > tnoMax {
			tnoMax = tno
		}
		if tnoMin < 0 || tno < tnoMin {
			tnoMin = tno
		}
	}
	if tnoMax < 0 {
		return nil, ppm.ParseErr("task table source has no digit-led lines")
	}

	table := &ppm.Table{
		Head:  tnoMin,
		Tasks: make([]ppm.Task, tnoMax+1),
	}

	for _, ln := range lines {
		task, err := parseLine(ln, opts)
		if err != nil {
			return nil, err
		}
		if task.No >= len(table.Tasks) || task.Next[0] >= len(table.Tasks) || task.Next[1] >= len(table.Tasks) {
			return nil, ppm.ParseErr(fmt.Sprintf("line %d: task number out of range", ln.no))
		}
		table.Tasks[task.No] = task
	}

	return table, nil
}

func readAllLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 2048), 2048)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

// parseLine converts one tokenized source line into a ppm.Task, following
// model_parser.c's MParser_parse field-by-field sscanf switch over ttype.
func parseLine(ln line, opts Options) (ppm.Task, error) {
	if len(ln.tokens) < 4 {
		return ppm.Task{}, ppm.ParseErr(fmt.Sprintf("line %d: expected at least 4 fields", ln.no))
	}

	tno, err1 := strconv.Atoi(ln.tokens[0])
	pid, err2 := strconv.Atoi(ln.tokens[1])
	ttypeRaw, err3 := strconv.Atoi(ln.tokens[2])
	mem, err4 := strconv.ParseInt(ln.tokens[3], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return ppm.Task{}, ppm.ParseErr(fmt.Sprintf("line %d: malformed task header", ln.no))
	}

	task := ppm.Task{No: tno, Pid: pid, Type: ppm.TaskType(ttypeRaw), Mem: mem}
	rest := ln.tokens[4:]

	switch task.Type {
	case ppm.TaskStart, ppm.TaskForkEnd, ppm.TaskJoin:
		next0, ok := matchArrow(rest, 0)
		if !ok {
			return ppm.Task{}, ppm.ParseErr(fmt.Sprintf("line %d: expected '-> next' after task header", ln.no))
		}
		task.Next[0] = next0

	case ppm.TaskEnd:
		// no trailing fields

	case ppm.TaskFork:
		next0, ok := matchArrow(rest, 0)
		if !ok {
			return ppm.Task{}, ppm.ParseErr(fmt.Sprintf("line %d: fork task missing '-> next0'", ln.no))
		}
		task.Next[0] = next0
		// Optional second branch: "-> next0 _ _ -> next1"; absent second
		// branch (conv_cnt<2 in the original) encodes an empty fork.
		if next1, ok := matchSecondForkBranch(rest[2:]); ok {
			task.Next[1] = next1
		}

	case ppm.TaskCalc:
		weight, next0, ok := matchWeightArrow(rest)
		if !ok {
			return ppm.Task{}, ppm.ParseErr(fmt.Sprintf("line %d: calc task missing 'weight -> next0'", ln.no))
		}
		task.Weight = math.Min(weight, opts.capCalc())
		task.Next[0] = next0

	case ppm.TaskCom:
		weight, dest, tail, ok := matchWeightDest(rest)
		if !ok {
			return ppm.Task{}, ppm.ParseErr(fmt.Sprintf("line %d: com task missing 'weight -- dest'", ln.no))
		}
		task.Weight = math.Min(weight, opts.capCom())
		task.Dest = dest

		var next0 int
		if dest == 0 {
			next0, ok = matchArrow(tail, 0)
		} else {
			next0, ok = matchSecondForkBranch(tail)
		}
		if !ok {
			return ppm.Task{}, ppm.ParseErr(fmt.Sprintf("line %d: com task missing '-> next0'", ln.no))
		}
		task.Next[0] = next0

	default:
		return ppm.Task{}, ppm.ParseErr(fmt.Sprintf("line %d: unknown task type %d", ln.no, ttypeRaw))
	}

	return task, nil
}

// matchArrow matches "-> next" at tokens[at:at+2].
func matchArrow(tokens []string, at int) (int, bool) {
	if len(tokens) < at+2 || tokens[at] != "->" {
		return 0, false
	}
	n, err := strconv.Atoi(tokens[at+1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// matchWeightArrow matches "weight -> next0".
func matchWeightArrow(tokens []string) (float64, int, bool) {
	if len(tokens) < 1 {
		return 0, 0, false
	}
	w, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return 0, 0, false
	}
	next0, ok := matchArrow(tokens, 1)
	if !ok {
		return 0, 0, false
	}
	return w, next0, true
}

// matchWeightDest matches "weight -- dest" and returns the remaining tokens
// for the caller to resolve next0 from (the branch depends on dest==0).
func matchWeightDest(tokens []string) (weight float64, dest int, tail []string, ok bool) {
	if len(tokens) < 3 || tokens[1] != "--" {
		return 0, 0, nil, false
	}
	w, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return 0, 0, nil, false
	}
	d, err := strconv.Atoi(tokens[2])
	if err != nil {
		return 0, 0, nil, false
	}
	return w, d, tokens[3:], true
}

// matchSecondForkBranch matches the extended "next0 _ _ -> next1" tail used
// both by a non-empty fork's second branch and by a non-broadcast com's
// destination resolution ("_ _ -> next0" in that caller's framing).
func matchSecondForkBranch(tokens []string) (int, bool) {
	if len(tokens) < 4 {
		return 0, false
	}
	if _, err := strconv.Atoi(tokens[0]); err != nil {
		return 0, false
	}
	if _, err := strconv.Atoi(tokens[1]); err != nil {
		return 0, false
	}
	return matchArrow(tokens, 2)
}
