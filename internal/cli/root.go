// Package cli implements the study command: account management, catalog
// search, subtitle export and an interactive study session against the backend.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subtitle-study/app/internal/apiclient"
	"github.com/subtitle-study/app/internal/config"
	"github.com/subtitle-study/app/internal/credential"
)

func Run(args []string) error {
	global := flag.NewFlagSet("study", flag.ContinueOnError)
	configPath := global.String("config", config.DefaultClientFile, "path to client config file")
	global.SetOutput(flag.CommandLine.Output())
	if err := global.Parse(args); err != nil {
		return err
	}
	args = global.Args()
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	var cmd func(*env, []string) error
	switch args[0] {
	case "signup":
		cmd = runSignUp
	case "signin":
		cmd = runSignIn
	case "signout":
		cmd = runSignOut
	case "whoami":
		cmd = runWhoAmI
	case "delete-account":
		cmd = runDeleteAccount
	case "search":
		cmd = runSearch
	case "saved":
		cmd = runSaved
	case "check":
		cmd = runCheck
	case "unsave":
		cmd = runUnsave
	case "subtitles":
		cmd = runSubtitles
	case "store":
		cmd = runStore
	case "translate":
		cmd = runTranslate
	case "session":
		cmd = runSession
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	// root context that is cancelled on SIGINT / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := openEnv(ctx, *configPath)
	if err != nil {
		return err
	}
	defer e.close()
	return describe(cmd(e, args[1:]))
}

// env is what every command needs: configuration, the local credential
// store and a backend client authenticated from that store.
type env struct {
	ctx    context.Context
	cfg    *config.Client
	store  *credential.SQLiteStore
	client *apiclient.Client
}

func openEnv(ctx context.Context, configPath string) (*env, error) {
	cfg, err := config.LoadClient(configPath)
	if err != nil {
		return nil, err
	}
	store, err := credential.OpenSQLite(cfg.CredentialPath)
	if err != nil {
		return nil, fmt.Errorf("open credentials: %w", err)
	}
	var opts []apiclient.Option
	if cfg.RequestTimeout > 0 {
		opts = append(opts, apiclient.WithTimeout(cfg.RequestTimeout))
	}
	client := apiclient.New(cfg.BaseURL, credential.TokenProvider{Store: store}, opts...)
	return &env{ctx: ctx, cfg: cfg, store: store, client: client}, nil
}

func (e *env) close() {
	e.store.Close()
}

// describe turns pipeline errors into messages a terminal user can act on.
func describe(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Kind {
	case apiclient.KindUnauthorized:
		return errors.New("not signed in or session expired: run `study signin`")
	case apiclient.KindNoNetwork:
		return fmt.Errorf("backend unreachable: %w", err)
	}
	return err
}

func printRootUsage() {
	fmt.Println("study: subtitle study client")
	fmt.Println()
	fmt.Println("Usage: study [--config study.yaml] <command> [flags] [args]")
	fmt.Println()
	fmt.Println("Account Commands:")
	fmt.Println("  signup          create an account and sign in")
	fmt.Println("  signin          sign in and keep the api token locally")
	fmt.Println("  signout         forget the stored credentials")
	fmt.Println("  whoami          show the signed-in account")
	fmt.Println("  delete-account  delete the signed-in account")
	fmt.Println()
	fmt.Println("Video Commands:")
	fmt.Println("  search      search the catalog: search [--page token] <query>")
	fmt.Println("  saved       list saved videos")
	fmt.Println("  check       report whether a video is saved: check <videoId>")
	fmt.Println("  unsave      delete a saved video: unsave <savedId>")
	fmt.Println()
	fmt.Println("Subtitle Commands:")
	fmt.Println("  subtitles   print subtitles: subtitles [--saved] [--vtt] [--copy] <videoId>")
	fmt.Println("  store       save a video with its fresh subtitles: store [--title t] <videoId>")
	fmt.Println("  translate   translate entries or text: translate [--ids 1,2] <videoId> | translate --text <text>")
	fmt.Println("  session     interactive study session: session [--saved] <videoId>")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Flags go before positional arguments")
	fmt.Println("  - Use --json on list commands for machine-readable output")
	fmt.Println("  - STUDY_BASE_URL and STUDY_CREDENTIALS override the config file")
}
