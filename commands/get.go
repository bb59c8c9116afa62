package commands

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/nacionrock/album-votes/store"
)

var GetCmd = Get{
	command: newCommand(),
	out:     time.Now().Format("2006-01-02T150405.csv"),
}

type Get struct {
	command
	out string
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Retrieves the album table from the data source and stores it to a local CSV file"
}

func (cmd *Get) Usage() string {
	return "--store <store> [store options] --out <file>"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] get [options] --out <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads the album table to a CSV file")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %s --debug get --store sheets --credentials "credentials.json" \`+"\n", APP)
	fmt.Println(`                   --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                   --out "albums.csv"`)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("get")

	flagset.StringVar(&cmd.out, "out", cmd.out, "CSV file name. Defaults to '<yyyy-mm-ddTHHmmss>.csv'")

	return flagset
}

func (cmd *Get) Execute(args ...any) error {
	ctx, options := arguments(args...)

	cmd.debug = options.Debug

	if strings.TrimSpace(cmd.out) == "" {
		return fmt.Errorf("--out is a required option")
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

	if cmd.debug {
		debugf("loaded %v albums from %v", table.Len(), s)
	}

	if err := store.NewFile(cmd.out).Save(ctx, table); err != nil {
		return fmt.Errorf("error creating CSV file (%v)", err)
	}

	infof("Retrieved %v albums to file %s", table.Len(), cmd.out)

	return nil
}
