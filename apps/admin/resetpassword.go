package main

import (
	"context"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.users.GetByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	data := user.UpdateUser{Email: usr.Email, Password: pwd, PasswordConfirm: pwd}
	if err = data.Validate(cli.validate); err != nil {
		return err
	}
	if _, err = cli.users.SetPassword(ctx, usr, pwd); err != nil {
		return err
	}
	cli.printf("password of %s updated\n", usr.Email)
	return nil
}
