package repl

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/peterh/liner"

	"wisp/internal/evaluator"
	"wisp/internal/object"
	"wisp/internal/printer"
	"wisp/internal/reader"
	"wisp/internal/util"
)

// Run drives the interactive read-eval-print loop until EOF. Each input
// line may hold several forms; every result, error or not, is printed
// readably and the loop continues.
func Run(ev *evaluator.Evaluator, cfg util.Configuration, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if cfg.HistoryFile != "" {
		if f, err := os.Open(cfg.HistoryFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	defer writeHistory(line, cfg.HistoryFile)

	fmt.Fprintf(out, "wisp v%s\n", cfg.Version)

	for {
		input, err := line.Prompt(cfg.Prompt)
		if err == liner.ErrPromptAborted {
			continue
		}
		if err == io.EOF {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		evalLine(ev, input, out)
	}
}

func evalLine(ev *evaluator.Evaluator, input string, out io.Writer) {
	r := reader.New(input)
	for !r.AtEOF() {
		form, err := r.ReadForm()
		if err != nil {
			fmt.Fprintln(out, err.Inspect())
			return
		}
		result := ev.EvalInRoot(form)
		if result.Type() == object.ERROR_OBJ {
			fmt.Fprintln(out, result.Inspect())
			continue
		}
		fmt.Fprintln(out, printer.PrStr(result, true))
	}
}

func writeHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		slog.Warn("cannot write history file",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
