package commands

import (
	"flag"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/nacionrock/album-votes/poll"
)

var ResultsCmd = Results{
	command: newCommand(),
	top:     5,
}

type Results struct {
	command
	top int
}

func (cmd *Results) Name() string {
	return "results"
}

func (cmd *Results) Description() string {
	return "Displays the albums with the most votes"
}

func (cmd *Results) Usage() string {
	return "--store <store> [store options] [--top <N>]"
}

func (cmd *Results) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] results [options] [--top <N>]\n", APP)
	fmt.Println()
	fmt.Println("  Lists the top N albums by votes")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %s results --store redis --redis "redis://localhost:6379/0" --top 10`+"\n", APP)
	fmt.Println()
}

func (cmd *Results) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("results")

	flagset.IntVar(&cmd.top, "top", cmd.top, "Number of albums to list")

	return flagset
}

func (cmd *Results) Execute(args ...any) error {
	ctx, options := arguments(args...)

	cmd.debug = options.Debug

	if cmd.top < 1 {
		return fmt.Errorf("invalid --top value (%v)", cmd.top)
	}

	s, closer, err := cmd.open(ctx)
	if err != nil {
		return err
	}

	defer closer()

	table, err := s.Load(ctx)
	if err != nil {
		return err
	}

	printResults(os.Stdout, table, cmd.top)

	return nil
}

func printResults(w io.Writer, table poll.Table, n int) {
	top := poll.Top(table, n)

	labels := make([]string, len(top))
	width := len("Total")

	for i, e := range top {
		labels[i] = fmt.Sprintf("%s - %s", e.Artist, e.Album)
		if n := utf8.RuneCountInString(labels[i]); n > width {
			width = n
		}
	}

	for i, e := range top {
		fmt.Fprintf(w, "%2d. %-*s  %8s\n", i+1, width, labels[i], humanize.Comma(int64(e.Votes)))
	}

	fmt.Fprintf(w, "    %-*s  %8s\n", width, "Total", humanize.Comma(int64(poll.Total(table))))
}
