// Command sessionctl manages the bot's encrypted session file from the
// terminal: sign a chat in against the backend, inspect it, or sign it out.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/spendify/spendify-bot/internal/api"
	"github.com/spendify/spendify-bot/internal/config"
	"github.com/spendify/spendify-bot/internal/session"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("sessionctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	chatID := fs.Int64("chat", 0, "Telegram chat ID")
	email := fs.String("email", "", "Account email (login only)")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(stdout, "Usage: sessionctl [flags] <login|show|signout|list>")
		fs.PrintDefaults()
		return fmt.Errorf("missing command")
	}
	command := fs.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sessions, err := session.NewStore(cfg.SessionFile, cfg.SessionKey)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	switch command {
	case "login":
		if *chatID == 0 || *email == "" {
			return fmt.Errorf("login requires -chat and -email")
		}
		return login(cfg, sessions, *chatID, *email, *passwordFlag, stdin, stdout)

	case "show":
		if *chatID == 0 {
			return fmt.Errorf("show requires -chat")
		}
		sess, err := sessions.Get(*chatID)
		if err != nil {
			return fmt.Errorf("chat %d: %w", *chatID, err)
		}
		name := "(no profile)"
		if sess.User != nil {
			name = sess.User.Email
		}
		fmt.Fprintf(stdout, "chat %d: signed in as %s\n", *chatID, name)
		return nil

	case "signout":
		if *chatID == 0 {
			return fmt.Errorf("signout requires -chat")
		}
		if err := sessions.SignOut(*chatID); err != nil {
			return fmt.Errorf("failed to sign out chat %d: %w", *chatID, err)
		}
		fmt.Fprintf(stdout, "chat %d signed out\n", *chatID)
		return nil

	case "list":
		ids := sessions.ChatIDs()
		if len(ids) == 0 {
			fmt.Fprintln(stdout, "no sessions")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintf(stdout, "%d\n", id)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func login(cfg *config.Config, sessions *session.Store, chatID int64, email, password string, stdin io.Reader, stdout io.Writer) error {
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	ctx := context.Background()
	client := api.NewClient(cfg.APIBaseURL)

	tokens, err := client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	user, err := client.Me(ctx, tokens.Token)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	if err := sessions.SignIn(chatID, tokens.Token, tokens.RefreshToken, user); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	fmt.Fprintf(stdout, "chat %d signed in as %s\n", chatID, user.Email)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal input such as tests and pipes.
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
