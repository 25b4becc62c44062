package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"secure.paste/config"
	"secure.paste/internal/api"
	"secure.paste/internal/envelope"
	"secure.paste/internal/logging"
	"secure.paste/internal/store"
)

// Secrets shorter than this get a startup warning.
const minSecretLength = 32

func main() {
	configPath := flag.StringP("config", "c", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatal("config error: ", err)
	}

	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		logrus.Fatal("logging error: ", err)
	}

	if cfg.Secret.Master.Len() < minSecretLength {
		log.Warnf("master secret is shorter than %d characters; token security depends on its entropy", minSecretLength)
	}

	st, err := store.Open(cfg.Store, log)
	if err != nil {
		log.WithError(err).Fatal("store initialization failed")
	}
	defer st.Close()

	protocol, err := envelope.FromConfig(cfg, st, log)
	if err != nil {
		log.WithError(err).Fatal("protocol initialization failed")
	}

	router := api.SetupRouter(protocol, cfg, log)

	log.WithFields(logrus.Fields{
		"addr":   cfg.Addr(),
		"store":  cfg.Store.Type,
		"cipher": cfg.Crypto.Cipher,
	}).Info("server starting")

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server failed")
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	}
}
