package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func (s *server) serve() error {
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s,
		ErrorLog:     log.New(s.logger, "", 0),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit

		s.logger.PrintInfo("shutting down server", map[string]string{"signal": sig.String()})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		err := httpSrv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
			return
		}

		s.logger.PrintInfo("completing background tasks", map[string]string{"addr": httpSrv.Addr})

		s.wg.Wait()
		shutdownError <- nil
	}()

	s.logger.PrintInfo("starting server", map[string]string{
		"env":  s.env,
		"addr": httpSrv.Addr,
	})

	err := httpSrv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	s.logger.PrintInfo("stopped server", map[string]string{"addr": httpSrv.Addr})

	return nil
}
