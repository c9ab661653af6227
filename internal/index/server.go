package index

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/packship/packship/internal/constants"
	"github.com/packship/packship/internal/errors"
)

// Server configuration bounds. Requests against a local directory are
// cheap; the timeouts exist so a stuck client cannot pin the server.
const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Handle is a running index server. Start returns it only after the
// listener is bound, so a publisher may connect as soon as it holds one.
//
// Lifetime is explicit: callers must either Stop the handle or Detach it.
// Detach is for the manual-inspection use case where the server should
// outlive the workflow that started it.
type Handle struct {
	url      string
	server   *http.Server
	group    *errgroup.Group
	detached bool
}

// Start creates the packages directory if needed, binds the listener and
// begins serving the index in the background. It fails with ErrBind when
// the port is already in use.
func Start(ctx context.Context, dir, host string, port int, cred Credential) (*Handle, error) {
	log := zerolog.Ctx(ctx)

	if cred.IsZero() {
		return nil, errors.Wrap(errors.ErrEmptyValue, "index credential")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrap(err, "failed to create packages directory")
	}

	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrBind, "listen on %s: %v", addr, err)
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           newHandler(dir, cred, log),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	group := &errgroup.Group{}
	group.Go(func() error {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	log.Info().
		Str("addr", listener.Addr().String()).
		Str("packages_dir", dir).
		Msg("local index listening")

	return &Handle{
		url:    "http://" + listener.Addr().String(),
		server: server,
		group:  group,
	}, nil
}

// URL returns the base URL of the running index.
func (h *Handle) URL() string {
	return h.url
}

// Stop shuts the server down gracefully and waits for the serve loop to
// exit. Stopping a detached handle is still allowed; detachment only
// records that not stopping is intentional.
func (h *Handle) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := h.server.Shutdown(shutdownCtx); err != nil {
		// Shutdown timed out; force-close remaining connections.
		_ = h.server.Close()
	}
	return errors.Wrap(h.group.Wait(), "index server")
}

// Detach marks the server as intentionally outliving its caller.
func (h *Handle) Detach() {
	h.detached = true
}

// Detached reports whether the handle was detached.
func (h *Handle) Detached() bool {
	return h.detached
}

// WaitReady polls the index address until it accepts a TCP connection or
// the timeout elapses. The listener is bound before Start returns, so this
// is a belt-and-braces gate the orchestrator runs before publishing.
func WaitReady(ctx context.Context, url string, timeout time.Duration) error {
	addr := url
	if len(addr) > 7 && addr[:7] == "http://" {
		addr = addr[7:]
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := net.DialTimeout("tcp", addr, constants.IndexReadyPollInterval)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		if time.Now().After(deadline) {
			return errors.Wrapf(errors.ErrServerNotReady, "%s after %s", addr, timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(constants.IndexReadyPollInterval):
		}
	}
}
