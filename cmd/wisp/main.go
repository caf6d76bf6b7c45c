package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"wisp/internal/evaluator"
	"wisp/internal/object"
	"wisp/internal/printer"
	"wisp/internal/repl"
	"wisp/internal/util"
)

var (
	// Version is stamped at build time from the VERSION file.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"

	help    bool
	version bool
	expr    string
	// logging
	logLevel string
	logFile  string
	// config vars
	configPath string
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&expr, "e", "", "Evaluate the given expression and exit")
	// config
	flag.StringVar(&configPath, "config", "", "Config file path (default: $WISP_HOME/wisp.toml, then ~/.wisp.toml)")
	// log config
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()

	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(logLevel),
	}
	logWriter := configureLogWriter()
	defaultLogger := slog.New(slog.NewJSONHandler(logWriter, loggerOptions))
	slog.SetDefault(defaultLogger)

	if version {
		printVersion()
		return
	}
	if help {
		printHelp()
		return
	}

	cfg, err := util.LoadConfiguration(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wisp: %v\n", err)
		os.Exit(1)
	}
	cfg.Version = Version
	cfg.BuildDate = BuildDate
	cfg.Commit = Commit

	ev := evaluator.New(os.Stdout)
	defineArgv(ev, flag.Args())
	preload(ev, cfg)

	switch {
	case expr != "":
		result := ev.EvalString(expr)
		if result.Type() == object.ERROR_OBJ {
			fmt.Fprintln(os.Stderr, result.Inspect())
			os.Exit(1)
		}
		fmt.Println(printer.PrStr(result, true))

	case flag.NArg() > 0:
		result := ev.RunFile(flag.Arg(0))
		if result.Type() == object.ERROR_OBJ {
			fmt.Fprintln(os.Stderr, result.Inspect())
			os.Exit(1)
		}

	default:
		if err := repl.Run(ev, cfg, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "wisp: %v\n", err)
			os.Exit(1)
		}
	}
}

// defineArgv binds *ARGV* to the script arguments, excluding the script
// path itself.
func defineArgv(ev *evaluator.Evaluator, args []string) {
	rest := args
	if len(rest) > 0 {
		rest = rest[1:]
	}
	items := make([]object.Object, len(rest))
	for i, a := range rest {
		items[i] = &object.String{Value: a}
	}
	ev.RootEnv().Define("*ARGV*", object.NewList(items...))
}

func preload(ev *evaluator.Evaluator, cfg util.Configuration) {
	for _, path := range cfg.Preload {
		result := ev.RunFile(path)
		if result.Type() == object.ERROR_OBJ {
			slog.Warn("preload file failed",
				slog.String("path", path),
				slog.String("error", result.Inspect()))
		}
	}
}

func configureLogWriter() *os.File {
	var logWriter *os.File
	var err error
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
			return os.Stderr
		}
		logWriter, err = os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
			logWriter = os.Stderr
		}
	} else {
		logWriter = os.Stderr
	}
	return logWriter
}

func printVersion() {
	fmt.Printf("wisp version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: wisp [options] [filename [args...]]

Options:
  -e <expr>          Evaluate the given expression, print the result and exit.
  -config <path>     Config file path. Default is $WISP_HOME/wisp.toml, then ~/.wisp.toml.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: debug, info, warn, error. Default is 'error'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Details:
This is the wisp programming language.

Examples:
  wisp                          Start an interactive session
  wisp -e '(+ 1 2)'             Evaluate an expression and exit
  wisp myfile.wisp arg1 arg2    Execute the file; arguments are bound to *ARGV*

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}

func logLevelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
