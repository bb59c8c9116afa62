package commands

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/nacionrock/album-votes/poll"
)

var PutCmd = Put{
	command: newCommand(),
	in:      "",
}

type Put struct {
	command
	in string
}

func (cmd *Put) Name() string {
	return "put"
}

func (cmd *Put) Description() string {
	return "Replaces the album table in the data source with the contents of a local CSV file"
}

func (cmd *Put) Usage() string {
	return "--store <store> [store options] --in <file>"
}

func (cmd *Put) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] put [options] --in <file>\n", APP)
	fmt.Println()
	fmt.Println("  Uploads a CSV file to the data source, replacing the existing album table")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf(`    %s put --store sqlite --dsn "albums.db" --in "albums.csv"`+"\n", APP)
	fmt.Println()
}

func (cmd *Put) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("put")

	flagset.StringVar(&cmd.in, "in", cmd.in, "CSV file with the 'artista', 'album', 'url_portada' and 'votos' columns")

	return flagset
}

func (cmd *Put) Execute(args ...any) error {
	ctx, options := arguments(args...)

	cmd.debug = options.Debug

	if strings.TrimSpace(cmd.in) == "" {
		return fmt.Errorf("--in is a required option")
	}

	table, err := readCSV(cmd.in)
	if err != nil {
		return err
	}

	s, closer, err := cmd.open(ctx)
	if err != nil {
		return err
	}

	defer closer()

	if err := s.Save(ctx, table); err != nil {
		return err
	}

	infof("Uploaded %v albums from %s", table.Len(), cmd.in)

	return nil
}

func readCSV(file string) (poll.Table, error) {
	f, err := os.Open(file)
	if err != nil {
		return poll.Empty(), err
	}

	defer f.Close()

	table, err := poll.ReadCSV(f)
	if err != nil {
		return poll.Empty(), fmt.Errorf("error reading CSV file %v (%v)", file, err)
	}

	return table, nil
}
