package cli

import (
	"context"
	"fmt"
)

// getSecret and getSimpleText are indirections so tests can script input.
var (
	getSecret     = GetSecret
	getSimpleText = GetSimpleText
	getLines      = GetLines
)

// Login asks for a session token issued by the account service and makes
// its subject the current identity.
func (a *App) Login(ctx context.Context) error {
	token, err := getSecret("Session token", a.out)
	if err != nil {
		return err
	}
	id, err := a.session.SignIn(ctx, token)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", id)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) WhoAmI(context.Context) error {
	if id, ok := a.session.Current(); ok {
		fmt.Fprintln(a.out, id)
	} else {
		fmt.Fprintln(a.out, "not signed in")
	}
	return nil
}
