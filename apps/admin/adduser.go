package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core/profile"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

// addUser creates an active user along with its profile. Any role may be given, admin included.
func (cli *commandLine) addUser(su user.SignUp) error {
	ctx := context.Background()
	nu := su.NewUser()
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}

	var usr user.User
	err := cli.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if usr, err = cli.users.Create(ctx, nu); err != nil {
			return err
		}
		prof := profile.Profile{UserID: usr.ID, FullName: nu.FullName}
		if usr.IsStudent() {
			prof.GradeLevel = su.GradeLevel
		} else {
			prof.Department = su.Department
		}
		_, err = cli.profiles.Create(ctx, prof)
		return errors.Wrap(err, "creating profile")
	})
	if err != nil {
		return err
	}
	cli.printf("created %s %s (%s)\n", usr.Role, usr.Email, usr.ID)
	return nil
}
