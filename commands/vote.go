package commands

import (
	"flag"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nacionrock/album-votes/events"
	"github.com/nacionrock/album-votes/metrics"
	"github.com/nacionrock/album-votes/session"
	"github.com/nacionrock/album-votes/store"
	"github.com/nacionrock/album-votes/vote"
)

var VoteCmd = Vote{
	command: newCommand(),
	index:   -1,
}

type Vote struct {
	command
	index int
}

func (cmd *Vote) Name() string {
	return "vote"
}

func (cmd *Vote) Description() string {
	return "Adds a vote for an album"
}

func (cmd *Vote) Usage() string {
	return "--store <store> [store options] --index <row>"
}

func (cmd *Vote) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] vote [options] --index <row>\n", APP)
	fmt.Println()
	fmt.Println("  Adds one vote to the album at <row> (0-based, in table order) and saves the table")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %s vote --store csv --file "albums.csv" --index 3`+"\n", APP)
	fmt.Println()
}

func (cmd *Vote) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("vote")

	flagset.IntVar(&cmd.index, "index", cmd.index, "Table row of the album (0-based)")

	return flagset
}

func (cmd *Vote) Execute(args ...any) error {
	ctx, options := arguments(args...)

	cmd.debug = options.Debug

	if cmd.index < 0 {
		return fmt.Errorf("--index is a required option")
	}

	s, closer, err := cmd.open(ctx)
	if err != nil {
		return err
	}

	defer closer()

	cache := store.NewCache(s, store.DefaultTTL)
	m := metrics.New(prometheus.NewRegistry(), "album_votes")
	votes := vote.NewService(cache, events.Nop{}, m, cmd.debug)

	result, err := votes.Vote(ctx, session.New("cli"), cmd.index)
	if err != nil {
		return err
	}

	if !result.Registered {
		return fmt.Errorf("no album at row %v", cmd.index)
	}

	fmt.Printf("%v\n", fmt.Sprintf(vote.MsgRegistered, result.Album))

	return nil
}
