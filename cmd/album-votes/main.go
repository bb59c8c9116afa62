package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	uhppoted "github.com/uhppoted/uhppoted-lib/command"

	"github.com/nacionrock/album-votes/commands"
)

var cli = []uhppoted.Command{
	&commands.VersionCmd,
	&commands.ServeCmd,
	&commands.GetCmd,
	&commands.PutCmd,
	&commands.VoteCmd,
	&commands.ResultsCmd,
}

var options = commands.Options{
	Debug: false,
}

var help = uhppoted.NewHelp(commands.APP, cli, nil)

func main() {
	flag.BoolVar(&options.Debug, "debug", options.Debug, "Enable debugging information")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("%-5s %v", "WARN", err)
	}

	cmd, err := uhppoted.Parse(cli, nil, help)
	if err != nil {
		fmt.Printf("\nError parsing command line: %v\n\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if cmd == nil {
		help.Execute(ctx)
		os.Exit(1)
	}

	if err = cmd.Execute(ctx, &options); err != nil {
		log.Printf("%-5s %v", "ERROR", err)
		os.Exit(1)
	}
}
