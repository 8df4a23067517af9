package build

import (
	"context"
	"net"
	"net/http"
	"time"

	sockaddr "github.com/hashicorp/go-sockaddr"
	"github.com/pkg/errors"

	"github.com/luacat/lcat/events"
)

// Serve serves the output tree over HTTP for previewing. It blocks until
// ctx is done (returning ctx.Err()) or the listener fails. Nothing is
// rebuilt here; pair it with Watch for that.
func (b *Builder) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", b.conf.Serve.Address)
	if err != nil {
		return errors.Wrap(err, "serve")
	}

	srv := &http.Server{Handler: http.FileServer(http.Dir(b.conf.OutputDir))}

	b.handler(events.ServeStart{
		Address: ln.Addr().String(),
		URL:     advertiseURL(ln.Addr()),
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
		return ctx.Err()
	case err := <-errCh:
		return errors.Wrap(err, "serve")
	}
}

// advertiseURL turns the bound address into something a browser can open.
// Wildcard hosts are swapped for a discovered private IP so the printed
// URL works from other machines on the network too.
func advertiseURL(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String()
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
		if private, err := sockaddr.GetPrivateIP(); err == nil && private != "" {
			host = private
		} else {
			host = "127.0.0.1"
		}
	}
	return "http://" + net.JoinHostPort(host, port)
}
