package accounts

import (
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/reelfeed/reelfeed/account"
	"github.com/reelfeed/reelfeed/credential"
	"github.com/reelfeed/reelfeed/internal/cmdflags"
	"github.com/reelfeed/reelfeed/internal/store"
	"github.com/reelfeed/reelfeed/session"
)

func Cmd() *cli.Command {
	storeDir := "./reelfeed-data"
	return &cli.Command{
		Name:  "accounts",
		Usage: "Account management commands",
		Flags: []cli.Flag{
			cmdflags.StoreDir(&storeDir),
		},
		Subcommands: []*cli.Command{
			registerCmd(&storeDir),
		},
	}
}

func registerCmd(storeDir *string) *cli.Command {
	var username string
	var email string
	return &cli.Command{
		Name:  "register",
		Usage: "Register a new account (password is read from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u", "user"},
				Usage:       "Display name of the new account",
				Destination: &username,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "email",
				Aliases:     []string{"e"},
				Usage:       "Email of the new account",
				Destination: &email,
				Required:    true,
			},
		},
		Action: func(ctx *cli.Context) error {
			sc := bufio.NewScanner(os.Stdin)
			if !sc.Scan() {
				return sc.Err()
			}
			password := strings.TrimSpace(sc.Text())
			if len(password) == 0 {
				return errors.New("missing password from stdin")
			}
			s, err := store.Open(ctx.Context, *storeDir)
			if err != nil {
				return err
			}
			defer s.Close()
			// the signup path issues a session token we do not want
			// here, a throwaway secret keeps it unusable
			secret, err := throwawaySecret()
			if err != nil {
				return err
			}
			issuer, err := session.NewIssuer(session.Config{
				Secret:   secret,
				Lifetime: time.Second,
			})
			if err != nil {
				return err
			}
			auth := account.NewAuthenticator(s.Accounts(), credential.NewHasher(), issuer)
			public, _, err := auth.Signup(ctx.Context, account.SignupRequest{
				Username: username,
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.App.Writer, "registered account %v\n", public.ID)
			return nil
		},
	}
}

func throwawaySecret() ([]byte, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, fmt.Errorf("unable to generate throwaway secret, cause %w", err)
	}
	return buf, nil
}
