// difftrace is an interactive inspector for a versioned update-tuple
// trace. It maintains one spine of string-keyed, integer-valued updates
// at single-dimension times, lets updates be staged, flushed, loaded
// from Parquet update streams, and queried through the fan-in cursor.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"
	"golang.org/x/term"

	"github.com/nvos/difftrace/internal/config"
	"github.com/nvos/difftrace/internal/lattice"
	"github.com/nvos/difftrace/internal/loader"
	"github.com/nvos/difftrace/internal/logging"
	"github.com/nvos/difftrace/internal/staging"
	"github.com/nvos/difftrace/internal/trace"
	"github.com/nvos/difftrace/internal/trie"
)

// Version is set at build time via ldflags
var Version = "dev"

type session struct {
	cfg     *config.Config
	spine   *trace.Spine[trie.String, trie.Int64, lattice.Step]
	staged  *staging.Buffer[trie.String, trie.Int64, lattice.Step]
	minTime lattice.Step
	maxTime lattice.Step
	hasTime bool
}

func main() {
	cfgPath := flag.String("config", "difftrace.yaml", "config file path")
	initial := flag.Uint64("initial", 0, "initial frontier time")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = config.DefaultConfig()
		} else {
			fmt.Fprintf(os.Stderr, "load config: %v\n", err)
			os.Exit(1)
		}
	}

	logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.JSON)
	log := logging.Component("inspector")
	log.Info("difftrace starting", "version", Version, "initial", *initial)

	s := &session{
		cfg:    cfg,
		spine:  trace.New[trie.String, trie.Int64](lattice.Step(*initial)),
		staged: staging.New[trie.String, trie.Int64, lattice.Step](),
	}

	// Files named on the command line are loaded before the prompt.
	for _, path := range flag.Args() {
		if out := s.execute("load " + path); out != "" {
			fmt.Println(out)
		}
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		s.runPrompt()
	} else {
		s.runScript()
	}
}

// runPrompt runs the interactive REPL.
func (s *session) runPrompt() {
	executor := func(in string) {
		in = strings.TrimSpace(in)
		if in == "" {
			return
		}
		if in == "quit" || in == "exit" {
			os.Exit(0)
		}
		if out := s.execute(in); out != "" {
			fmt.Println(out)
		}
	}
	p := prompt.New(executor, completer,
		prompt.OptionTitle("difftrace"),
		prompt.OptionPrefix("difftrace> "),
	)
	p.Run()
}

// runScript consumes one command per line from stdin.
func (s *session) runScript() {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		if out := s.execute(line); out != "" {
			fmt.Println(out)
		}
	}
}

var commands = []prompt.Suggest{
	{Text: "insert", Description: "insert <key> <val> <time> <delta>: stage one update"},
	{Text: "flush", Description: "flush staged updates into the spine"},
	{Text: "load", Description: "load <file>...: replay Parquet update streams"},
	{Text: "advance", Description: "advance <time>: move the spine frontier"},
	{Text: "query", Description: "query [key]: list consolidated tuples"},
	{Text: "layers", Description: "show resident batch sizes"},
	{Text: "stats", Description: "show merge statistics"},
	{Text: "help", Description: "show command help"},
	{Text: "quit", Description: "exit"},
}

func completer(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	return prompt.FilterHasPrefix(commands, d.GetWordBeforeCursor(), true)
}

func (s *session) execute(line string) string {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "insert":
		return s.cmdInsert(args)
	case "flush":
		return s.cmdFlush()
	case "load":
		return s.cmdLoad(args)
	case "advance":
		return s.cmdAdvance(args)
	case "query":
		return s.cmdQuery(args)
	case "layers":
		return s.cmdLayers()
	case "stats":
		return s.cmdStats()
	case "help":
		var b strings.Builder
		for _, c := range commands {
			fmt.Fprintf(&b, "%-8s %s\n", c.Text, c.Description)
		}
		return strings.TrimRight(b.String(), "\n")
	default:
		return fmt.Sprintf("unknown command %q (try help)", cmd)
	}
}

func (s *session) cmdInsert(args []string) string {
	if len(args) != 4 {
		return "usage: insert <key> <val> <time> <delta>"
	}
	val, err1 := strconv.ParseInt(args[1], 10, 64)
	t, err2 := strconv.ParseUint(args[2], 10, 64)
	delta, err3 := strconv.ParseInt(args[3], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return "insert: val, time and delta must be integers"
	}
	s.stage(trie.String(args[0]), trie.Int64(val), lattice.Step(t), delta)

	if th := s.cfg.Staging.FlushThreshold; th > 0 && s.staged.Len() >= th {
		return s.cmdFlush()
	}
	return fmt.Sprintf("staged (%d pending)", s.staged.Len())
}

func (s *session) stage(key trie.String, val trie.Int64, t lattice.Step, delta int64) {
	s.staged.Add(key, val, t, delta)
	if !s.hasTime {
		s.minTime, s.maxTime, s.hasTime = t, t, true
		return
	}
	s.minTime = s.minTime.Meet(t)
	s.maxTime = s.maxTime.Join(t)
}

func (s *session) cmdFlush() string {
	if s.staged.Len() == 0 {
		return "nothing staged"
	}
	lower := []lattice.Step{s.minTime}
	upper := []lattice.Step{s.maxTime + 1}
	batch := s.staged.Flush(lower, upper)
	s.hasTime = false
	s.spine.Insert(batch)
	return fmt.Sprintf("inserted batch of %d tuples, %d layers resident", batch.Len(), len(s.spine.Layers()))
}

func (s *session) cmdLoad(args []string) string {
	if len(args) == 0 {
		return "usage: load <file>..."
	}
	streams, err := loader.ReadFiles(args)
	if err != nil {
		return fmt.Sprintf("load: %v", err)
	}
	total := 0
	for i, rows := range streams {
		buf := staging.New[trie.String, trie.Int64, lattice.Step]()
		var lo, hi lattice.Step
		for j, r := range rows {
			t := lattice.Step(r.Time)
			buf.Add(trie.String(r.Key), trie.Int64(r.Val), t, r.Delta)
			if j == 0 {
				lo, hi = t, t
			} else {
				lo, hi = lo.Meet(t), hi.Join(t)
			}
		}
		batch := buf.Flush([]lattice.Step{lo}, []lattice.Step{hi + 1})
		s.spine.Insert(batch)
		total += len(rows)
		logging.Component("inspector").Info("loaded stream",
			"file", args[i], "rows", len(rows), "tuples", batch.Len())
	}
	return fmt.Sprintf("loaded %d updates from %d files, %d layers resident",
		total, len(streams), len(s.spine.Layers()))
}

func (s *session) cmdAdvance(args []string) string {
	if len(args) != 1 {
		return "usage: advance <time>"
	}
	t, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return "advance: time must be an integer"
	}
	s.spine.AdvanceBy([]lattice.Step{lattice.Step(t)})
	return fmt.Sprintf("frontier now %v", s.spine.Frontier().Elements())
}

func (s *session) cmdQuery(args []string) string {
	cur := s.spine.Cursor()
	if len(args) == 1 {
		key := trie.String(args[0])
		cur.SeekKey(key)
		if !cur.KeyValid() || cur.Key() != key {
			return "no such key"
		}
		return formatKey(cur)
	}

	var b strings.Builder
	for cur.KeyValid() {
		b.WriteString(formatKey(cur))
		b.WriteByte('\n')
		cur.StepKey()
	}
	if b.Len() == 0 {
		return "trace is empty"
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatKey renders the current key's values with deltas summed per
// time across batches.
func formatKey(cur trace.Cursor[trie.String, trie.Int64, lattice.Step]) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", string(cur.Key()))
	for cur.ValValid() {
		totals := map[lattice.Step]int64{}
		var order []lattice.Step
		cur.MapTimes(func(t lattice.Step, delta int64) {
			if _, seen := totals[t]; !seen {
				order = append(order, t)
			}
			totals[t] += delta
		})
		for _, t := range order {
			if totals[t] != 0 {
				fmt.Fprintf(&b, " (%d @%d %+d)", int64(cur.Val()), uint64(t), totals[t])
			}
		}
		cur.StepVal()
	}
	return b.String()
}

func (s *session) cmdLayers() string {
	sizes := s.spine.Layers()
	if len(sizes) == 0 {
		return "no resident layers"
	}
	var b strings.Builder
	for i, n := range sizes {
		fmt.Fprintf(&b, "layer %d: %d tuples\n", i, n)
	}
	fmt.Fprintf(&b, "total: %d tuples in %d layers", s.spine.Len(), len(sizes))
	return b.String()
}

func (s *session) cmdStats() string {
	if !s.cfg.Stats.Enabled {
		return "stats disabled in config"
	}
	st := s.spine.Stats()
	return fmt.Sprintf(
		"inserts=%d inserted_tuples=%d merges=%d merged_tuples=%d advances=%d\n"+
			"merge_size p50=%.0f p99=%.0f  merge_dur_ns p50=%.0f p99=%.0f",
		st.Inserts, st.InsertedTuples, st.Merges, st.MergedTuples, st.Advances,
		st.MergeSizeP50, st.MergeSizeP99, st.MergeDurP50, st.MergeDurP99)
}
