package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/browser"
)

// Opener shows the authorization URL to the user.
type Opener func(url string) error

// OpenBrowser opens the URL in the system browser.
var OpenBrowser Opener = browser.OpenURL

// Receiver accepts the authorization redirect on a loopback address.
type Receiver struct {
	ln      net.Listener
	srv     *http.Server
	url     string
	results chan CallbackResult
}

// Listen binds the host and port of redirectURL. Port 0 (or no port) picks a
// free one; URL reports the address actually bound.
func Listen(redirectURL string) (*Receiver, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return nil, fmt.Errorf("redirect url: %w", err)
	}
	port := u.Port()
	if port == "" {
		port = "0"
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(u.Hostname(), port))
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}

	bound := *u
	bound.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(ln.Addr().(*net.TCPAddr).Port))
	path := u.Path
	if path == "" {
		path = "/"
	}

	r := &Receiver{ln: ln, url: bound.String(), results: make(chan CallbackResult, 1)}

	mux := http.NewServeMux()
	mux.HandleFunc(path, r.handle)
	r.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() { _ = r.srv.Serve(ln) }()
	return r, nil
}

func (r *Receiver) handle(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	res := CallbackResult{Code: q.Get("code"), State: q.Get("state"), Error: q.Get("error")}

	select {
	case r.results <- res:
	default:
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if res.Error != "" {
		_, _ = fmt.Fprintf(w, "Sign-in failed: %s. You can close this tab.\n", res.Error)
		return
	}
	_, _ = fmt.Fprintln(w, "Signed in to Nekos.Land. You can close this tab and return to the terminal.")
}

// URL is the redirect URL to register with the authorization request.
func (r *Receiver) URL() string {
	return r.url
}

// Wait blocks until the first redirect arrives or ctx ends.
func (r *Receiver) Wait(ctx context.Context) (CallbackResult, error) {
	select {
	case res := <-r.results:
		return res, nil
	case <-ctx.Done():
		return CallbackResult{}, ctx.Err()
	}
}

func (r *Receiver) Close() error {
	err := r.srv.Close()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Login runs a complete sign-in: it binds the redirect receiver, shows the
// authorization URL through open and exchanges the returned code.
func (p *Provider) Login(ctx context.Context, open Opener) (*Tokens, error) {
	recv, err := Listen(p.cfg.RedirectURL)
	if err != nil {
		return nil, err
	}
	defer recv.Close()

	f := p.Begin(recv.URL())
	if err := open(f.URL); err != nil {
		return nil, fmt.Errorf("open authorization url: %w", err)
	}

	cb, err := recv.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return p.Exchange(ctx, f, cb)
}
