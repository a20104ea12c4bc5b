package main

import "errors"

var errNoDatabase = errors.New("migrations need a postgres database")

func (cli *commandLine) migrate(args []string) error {
	if cli.migrator == nil {
		return errNoDatabase
	}
	return cli.migrator(args[0], args[1:]...)
}
