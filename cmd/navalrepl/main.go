// Command navalrepl is the CLI front-end over the replay analysis engine:
// dump, survey, chat, summary, investigate, search, and spec subcommands,
// each consuming one replay path plus a game-directory option pointing at
// the resource root. Mirrors the teacher's single-binary cmd/screp shape,
// generalized to subcommands the way the pack's houston tools are built.
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"

	"github.com/navalreplay/analyzer/logx"
)

const (
	appName = "navalrepl"

	exitMissingArguments = 1
	exitFailed           = 2
)

// globalOptions are flags every subcommand accepts.
type globalOptions struct {
	GameDir    string `long:"game-dir" description:"game resource directory (ships/consumables params + localization)"`
	SchemaDir  string `long:"schema-dir" description:"entity-schema document directory"`
	ConfigFile string `long:"config" description:"path to config file (default: ~/.config/navalrepl/config.yaml)"`
	StorePath  string `long:"store" description:"path to the SQLite report index" default:"navalrepl.db"`
	Verbose    bool   `short:"v" long:"verbose" description:"enable debug-level logging"`
}

var opts globalOptions

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = appName
	parser.LongDescription = "Parses naval combat replay files into structured battle reports."

	// -v/--verbose governs log level and must be known before any
	// subcommand's Execute runs, which go-flags invokes as part of Parse
	// itself; scan argv for it directly rather than parsing twice.
	level := zerolog.InfoLevel
	for _, a := range os.Args[1:] {
		if a == "-v" || a == "--verbose" {
			level = zerolog.DebugLevel
			break
		}
	}
	zlog := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	logx.SetLogger(logx.NewZerologAdapter(zlog))

	parser.AddCommand("dump", "Dump a replay's metadata and decoded battle report as JSON", "", &dumpCmd{})
	parser.AddCommand("survey", "Print a one-line summary per replay in a directory", "", &surveyCmd{})
	parser.AddCommand("chat", "Print the chat log of a replay", "", &chatCmd{})
	parser.AddCommand("summary", "Print a summary of a replay's battle report", "", &summaryCmd{})
	parser.AddCommand("investigate", "Print a previously indexed battle report by id", "", &investigateCmd{})
	parser.AddCommand("search", "Search indexed battle reports by player/clan", "", &searchCmd{})
	parser.AddCommand("spec", "Print the resolved configuration", "", &specCmd{})

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailed)
	}
}
