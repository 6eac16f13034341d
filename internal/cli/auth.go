package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/mbx/modelbox/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials, signs in, and binds the session to the
// caller. Wrong credentials are reported without distinguishing unknown
// emails from bad passwords.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	token, userID, err := a.auth.SignIn(ctx, email, string(password))
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			log.Println("Invalid email or password")
			return nil
		}
		return err
	}

	a.token = token
	a.session.SetSession(userID)
	a.directory.Refresh(ctx)

	if a.session.IsReadOnlyView(ctx) {
		fmt.Printf("Signed in. Viewing %s (read-only)\n", a.directory.Label(a.session.EffectiveOwner(ctx)))
	} else {
		fmt.Println("Signed in")
	}
	return nil
}

// Logout drops the token and session; the persisted owner selection stays
// for the next sign-in.
func (a *App) Logout(ctx context.Context) error {
	a.token = ""
	a.session.SetSession("")
	fmt.Println("Signed out")
	return nil
}
