// Package workspace connects the email and calendar agents to Google
// Workspace: OAuth2 consent and token caching, Gmail and Google Calendar.
package workspace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/m4xw311/steward/config"
	"github.com/m4xw311/steward/errors"
)

// Auth obtains authorized HTTP clients for Google APIs. Tokens are cached
// per service in the token directory; a missing token starts a consent
// flow with a loopback redirect.
type Auth struct {
	clientID     string
	clientSecret string
	tokenDir     string
	endpoint     oauth2.Endpoint
	out          io.Writer
	log          *slog.Logger
}

// NewAuth returns an Auth for the configured OAuth client. Consent URLs
// are written to out.
func NewAuth(g config.Google, out io.Writer) (*Auth, error) {
	if g.ClientID == "" || g.ClientSecret == "" {
		return nil, errors.Fatal(nil, "google client_id and client_secret must be configured (GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET)")
	}
	dir := g.TokenDir
	if dir == "" {
		dir = filepath.Join(".steward", "token")
	}
	return &Auth{
		clientID:     g.ClientID,
		clientSecret: g.ClientSecret,
		tokenDir:     dir,
		endpoint:     google.Endpoint,
		out:          out,
		log:          slog.Default().With("component", "workspace.auth"),
	}, nil
}

// Client returns an HTTP client authorized for scopes, using the token
// cached as <service>_token.json.
func (a *Auth) Client(ctx context.Context, service string, scopes ...string) (*http.Client, error) {
	conf := &oauth2.Config{
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		Endpoint:     a.endpoint,
		Scopes:       scopes,
	}
	path := filepath.Join(a.tokenDir, service+"_token.json")

	tok, err := loadToken(path)
	if err != nil {
		a.log.Info("no cached token, requesting consent", "service", service)
		tok, err = a.consent(ctx, conf, service)
		if err != nil {
			return nil, err
		}
		if err := saveToken(path, tok); err != nil {
			return nil, err
		}
	}

	ts := &cachingTokenSource{
		base: conf.TokenSource(context.WithoutCancel(ctx), tok),
		path: path,
		last: tok.AccessToken,
		log:  a.log,
	}
	return oauth2.NewClient(context.WithoutCancel(ctx), ts), nil
}

// consent runs the authorization code flow against a one-shot local
// callback server.
func (a *Auth) consent(ctx context.Context, conf *oauth2.Config, service string) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, errors.Fatal(err, "could not start the OAuth callback listener")
	}
	defer ln.Close()

	c := *conf
	c.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr())
	state, err := randomState()
	if err != nil {
		return nil, errors.Fatal(err, "could not generate OAuth state")
	}

	codes := make(chan string, 1)
	failures := make(chan error, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			http.Error(w, "authorization denied", http.StatusForbidden)
			select {
			case failures <- errors.Fatal(nil, "%s authorization denied: %s", service, q.Get("error")):
			default:
			}
			return
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this window.")
		select {
		case codes <- q.Get("code"):
		default:
		}
	})}
	go srv.Serve(ln)
	defer srv.Close()

	fmt.Fprintf(a.out, "Open this URL in your browser to authorize %s access:\n%s\n",
		service, c.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	select {
	case code := <-codes:
		tok, err := c.Exchange(ctx, code)
		if err != nil {
			return nil, errors.Fatal(err, "could not exchange the %s authorization code", service)
		}
		return tok, nil
	case err := <-failures:
		return nil, err
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "waiting for %s authorization", service)
	}
}

// cachingTokenSource writes refreshed tokens back to the cache file.
type cachingTokenSource struct {
	base oauth2.TokenSource
	path string
	log  *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *cachingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := saveToken(s.path, tok); err != nil {
			s.log.Warn("could not cache refreshed token", "path", s.path, "error", err)
		}
	}
	return tok, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, errors.Wrapf(err, "could not parse token %s", path)
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Fatal(err, "could not create token directory")
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return errors.Wrapf(err, "could not encode token")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Fatal(err, "could not write token %s", path)
	}
	return nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
