package serve

import (
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/urfave/cli/v2"

	"github.com/reelfeed/reelfeed/account"
	accountapi "github.com/reelfeed/reelfeed/account/api"
	"github.com/reelfeed/reelfeed/credential"
	"github.com/reelfeed/reelfeed/internal/cmdflags"
	"github.com/reelfeed/reelfeed/internal/httpserver"
	"github.com/reelfeed/reelfeed/internal/logutil"
	"github.com/reelfeed/reelfeed/internal/store"
	postapi "github.com/reelfeed/reelfeed/post/api"
	"github.com/reelfeed/reelfeed/session"
	sessionapi "github.com/reelfeed/reelfeed/session/api"
)

func Cmd() *cli.Command {
	bindAddr := "localhost:7040"
	storeDir := "./reelfeed-data"
	var secretEnvVar string
	tokenLifetime := 24 * time.Hour
	insecureCookie := false
	debug := false
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the reelfeed API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "bind",
				Usage:       "Address to bind the API server",
				Value:       bindAddr,
				Destination: &bindAddr,
			},
			cmdflags.StoreDir(&storeDir),
			cmdflags.SecretEnvVar(&secretEnvVar),
			&cli.DurationFlag{
				Name:        "token-lifetime",
				Usage:       "How long issued session tokens (and their cookies) stay valid",
				Value:       tokenLifetime,
				Destination: &tokenLifetime,
			},
			&cli.BoolFlag{
				Name:        "insecure-cookie",
				Usage:       "Allow the session cookie over plain HTTP (local development only)",
				Value:       insecureCookie,
				Destination: &insecureCookie,
			},
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "Enable debug logging",
				Value:       debug,
				Destination: &debug,
			},
		},
		Action: func(ctx *cli.Context) error {
			logger := logutil.Setup(debug)
			appCtx := logutil.WithLogger(ctx.Context, logger)

			secret, err := session.SecretFromEnv(secretEnvVar, nil, nil)
			if err != nil {
				return err
			}
			issuer, err := session.NewIssuer(session.Config{
				Secret:         secret,
				Lifetime:       tokenLifetime,
				InsecureCookie: insecureCookie,
			})
			if err != nil {
				return err
			}
			s, err := store.Open(appCtx, storeDir)
			if err != nil {
				return err
			}
			defer s.Close()

			auth := account.NewAuthenticator(s.Accounts(), credential.NewHasher(), issuer)
			realm := sessionapi.NewRealm(issuer, insecureCookie)

			router := httprouter.New()
			accountapi.Register(router, auth, realm)
			postapi.Register(router, s.Posts(), s.Accounts(), realm)
			return httpserver.Serve(appCtx, bindAddr, router)
		},
	}
}
