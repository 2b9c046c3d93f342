package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/backoffice-console/api"
	"github.com/jrsteele09/backoffice-console/auth"
	"github.com/jrsteele09/backoffice-console/internal/config"
	"github.com/jrsteele09/backoffice-console/resources"
	"github.com/jrsteele09/backoffice-console/server"
	"github.com/jrsteele09/backoffice-console/session"
	"github.com/jrsteele09/backoffice-console/session/filerepo"
	"github.com/jrsteele09/backoffice-console/session/redisrepo"
	fakesessionrepo "github.com/jrsteele09/backoffice-console/session/repofake"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// errInvalidConfig marks failures no restart can fix
var errInvalidConfig = errors.New("invalid configuration")

func main() {
	for {
		err := run()
		if err == nil {
			break
		}
		if errors.Is(err, errInvalidConfig) {
			log.Fatal().Err(err).Msg("cannot start server")
		}
		log.Error().Err(err).Msg("error running server")
		time.Sleep(1 * time.Second)
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	setupLogging(c)
	displayAppname(c.GetAppName())

	ctx := context.Background()
	repo, closeRepo, err := newSessionRepo(ctx, c)
	if err != nil {
		return err
	}
	defer closeRepo()

	var opts []session.Option
	if jwks := c.GetJWKSURL(); jwks != "" {
		opts = append(opts, session.WithKeySet(oidc.NewRemoteKeySet(ctx, jwks)))
	}
	store := session.New(repo, opts...)
	if err := store.Open(ctx); err != nil {
		return fmt.Errorf("store.Open: %w", err)
	}
	defer store.Close()

	client := api.New(c.GetAPIBaseURL(), store,
		api.WithTimeout(c.GetAPITimeout()),
		api.WithRefreshPath(c.GetRefreshPath()),
	)
	log.Info().Str("backend", client.BaseURL()).Msg("api client ready")
	authService := auth.NewService(client, store)
	res := resources.New(client, repo)

	server := &http.Server{Addr: c.GetPort(), Handler: server.New(c, store, authService, res)}
	errs := make(chan error, 1)
	go func() { errs <- listenAndServe(server) }()

	if err := waitForStopSignal(errs); err != nil {
		return err
	}
	returnError = shutdown(server)
	return returnError
}

func setupLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// newSessionRepo opens the configured session repo. The returned func
// releases it.
func newSessionRepo(ctx context.Context, c config.StorageConfig) (session.Repo, func(), error) {
	switch c.GetSessionStore() {
	case config.StoreMemory:
		log.Warn().Msg("session kept in memory, it is lost on restart")
		return fakesessionrepo.NewFakeSessionRepo(), func() {}, nil
	case config.StoreRedis:
		rdb, err := config.NewRedisClient(ctx, c)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("addr", c.GetRedisAddr()).Msg("session kept in redis")
		return redisrepo.New(rdb, c.GetRedisPrefix()), func() { _ = rdb.Close() }, nil
	default:
		repo, err := filerepo.New(c.GetSessionFile(), c.GetSessionKey())
		if errors.Is(err, filerepo.ErrNoKey) {
			return nil, nil, fmt.Errorf("%w: SESSION_STORE=file needs SESSION_KEY: %w", errInvalidConfig, err)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("filerepo.New: %w", err)
		}
		log.Info().Str("file", c.GetSessionFile()).Msg("session kept in encrypted file")
		return repo, func() {}, nil
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

// waitForStopSignal blocks until a stop signal or a listener failure
func waitForStopSignal(errs <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)
	select {
	case <-stop:
		return nil
	case err := <-errs:
		return err
	}
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
