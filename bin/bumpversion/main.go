package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/marco79423/bumpversion/pkg/command/bump"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "bumpversion"
	app.Usage = "iOS build number 小幫手"
	app.Version = version

	app.Commands = []*cli.Command{
		bump.Command(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := app.RunContext(ctx, os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		stop()
		os.Exit(1)
	}
}
