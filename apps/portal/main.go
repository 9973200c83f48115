package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/edportal/apps/portal/seed"
	"github.com/trezcool/edportal/core"
)

func main() {
	c := NewContainer(core.NewConfig)

	var exitCode int
	must(c.Invoke(func(conf *core.Config, logger core.Logger, cli *commandLine) {
		logger.Debug(fmt.Sprintf("%s starting : version %q", conf.AppName, conf.Build))

		if conf.Seed {
			if err := seedDB(cli); err != nil {
				logger.Error(fmt.Sprintf("seeding: %v", err), err)
			}
		}

		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
			}
			exitCode = 1
		}
	}))
	os.Exit(exitCode)
}

// seedDB writes the demo fixtures through the services of cli.
func seedDB(cli *commandLine) error {
	f, err := seed.Load()
	if err != nil {
		return err
	}
	err = seed.Apply(context.Background(), f, seed.Services{
		Users:     cli.users,
		Groups:    cli.groups,
		Classes:   cli.classes,
		Resources: cli.resources,
		Questions: cli.questions,
	})
	return errors.Wrap(err, "applying fixtures")
}
