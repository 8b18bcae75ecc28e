// Copyright 2025 The Velox Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Run boots the application and serves HTTP until the context is canceled or
// SIGINT/SIGTERM arrives, then shuts down gracefully within the configured
// timeout. It returns once the server has stopped.
func (a *App) Run(ctx context.Context) error {
	if err := a.boot(); err != nil {
		return err
	}

	addr := a.cfg.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.handler,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
	}

	if a.banner && a.cfg.Development {
		a.printStartupBanner(addr, a.routeCount)
	}
	a.logger.Info("server starting",
		"app", a.name,
		"address", addr,
		"routes", a.routeCount,
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("app %q: serve: %w", a.name, err)
		}

		return nil
	case <-ctx.Done():
	}

	a.logger.Info("server shutting down", "app", a.name)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app %q: shutdown: %w", a.name, err)
	}

	a.logger.Info("server stopped", "app", a.name)

	return nil
}

// Handler boots the application and returns its root http.Handler — the
// router, wrapped with the metrics scrape endpoint when one is configured —
// for embedding in an existing server or for tests. Boot failures surface
// here, not at first request.
func (a *App) Handler() (http.Handler, error) {
	if a.handler == nil {
		if err := a.boot(); err != nil {
			return nil, err
		}
	}

	return a.handler, nil
}
