package cli

import (
	"errors"
	"flag"

	"github.com/subtitle-study/app/internal/credential"
	"github.com/subtitle-study/app/internal/models"
)

func runSignUp(e *env, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, f := range []struct {
		v     *string
		label string
	}{{name, "name"}, {email, "email"}, {password, "password"}} {
		if err := valueOrPrompt(f.v, f.label); err != nil {
			return err
		}
	}

	resp, err := e.client.SignUp(e.ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	if resp.IsDuplicatedEmail {
		return errors.New("email is already registered: use `study signin`")
	}
	return e.remember(resp, *name, *password)
}

func runSignIn(e *env, args []string) error {
	fs := flag.NewFlagSet("signin", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := valueOrPrompt(email, "email"); err != nil {
		return err
	}
	if err := valueOrPrompt(password, "password"); err != nil {
		return err
	}

	resp, err := e.client.SignIn(e.ctx, *email, *password)
	if err != nil {
		return err
	}
	return e.remember(resp, resp.Name, *password)
}

// remember stores the issued token with the account fields.
func (e *env) remember(resp models.AuthPayload, name, password string) error {
	if resp.APIToken == "" {
		return errors.New("backend returned no api token")
	}
	if resp.Name != "" {
		name = resp.Name
	}
	if err := e.store.Save(resp.APIToken, name, resp.Email, password); err != nil {
		return err
	}
	printf("signed in as %s <%s>\n", name, resp.Email)
	return nil
}

func runSignOut(e *env, args []string) error {
	if err := e.store.DeleteAll(); err != nil {
		return err
	}
	printf("signed out\n")
	return nil
}

func runWhoAmI(e *env, args []string) error {
	email, err := e.store.Load(credential.ServiceEmail)
	if errors.Is(err, credential.ErrNotFound) {
		printf("not signed in\n")
		return nil
	}
	if err != nil {
		return err
	}
	name, _ := e.store.Load(credential.ServiceUsername)
	printf("%s <%s>\n", name, email)
	return nil
}

func runDeleteAccount(e *env, args []string) error {
	fs := flag.NewFlagSet("delete-account", flag.ContinueOnError)
	password := fs.String("password", "", "account password (default: the stored one)")
	yes := fs.Bool("yes", false, "confirm deletion")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("refusing to delete the account without --yes")
	}

	email, err := e.store.Load(credential.ServiceEmail)
	if err != nil {
		return errors.New("not signed in")
	}
	if *password == "" {
		if *password, err = e.store.Load(credential.ServicePassword); err != nil {
			return errors.New("no stored password: pass --password")
		}
	}
	if err := e.client.DeleteAccount(e.ctx, email, *password); err != nil {
		return err
	}
	if err := e.store.DeleteAll(); err != nil {
		return err
	}
	printf("account %s deleted\n", email)
	return nil
}
