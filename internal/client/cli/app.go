package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/Nekos-API/Nekos.Land/internal/client/client"
	"github.com/Nekos-API/Nekos.Land/internal/client/config"
	"github.com/Nekos-API/Nekos.Land/internal/client/oauth"
	"github.com/Nekos-API/Nekos.Land/internal/client/repositories"
	"github.com/Nekos-API/Nekos.Land/internal/client/repositories/metadata"
	"github.com/Nekos-API/Nekos.Land/internal/client/repositories/session"
	"github.com/Nekos-API/Nekos.Land/internal/client/services"
	"github.com/Nekos-API/Nekos.Land/internal/client/ui"
	"github.com/Nekos-API/Nekos.Land/internal/filex"
	"github.com/Nekos-API/Nekos.Land/internal/logging"
)

const appName = "nekos-land"

// App is the terminal front-end. It owns the services and renders their
// state; all network work happens inside the services.
type App struct {
	cfg    *config.Config
	log    logging.Logger
	out    io.Writer
	in     *bufio.Scanner
	db     *sql.DB

	theme         *ui.Theme
	palette       *ui.Popup
	route         ui.Route
	viewingArtist bool
	clipboard     services.Clipboard

	auth      services.AuthService
	feed      services.FeedService
	artists   services.ArtistService
	reports   services.ReportService
	settings  services.SettingsService
	usernames *services.UsernameChecker
	archive   services.ArchiveService
}

// NewApp wires the client from cfg. The local store lives in the data
// directory; the session is encrypted there only when a session secret is
// configured.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	dir, err := filex.EnsureDataDir(appName, cfg.DataDir)
	if err != nil {
		return nil, err
	}
	db, err := repositories.OpenSQLite(ctx, filepath.Join(dir, appName+".db"))
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	var store session.Store
	if cfg.SessionSecret != "" {
		store = session.NewEncryptedStore(db, []byte(cfg.SessionSecret))
	} else {
		log.Warn(ctx, "no session secret configured, sign-in will not survive a restart", "env", config.EnvSessionSecret)
		store = session.NewMemoryStore()
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	a := &App{
		cfg:       cfg,
		log:       log,
		out:       &syncWriter{w: os.Stdout},
		in:        bufio.NewScanner(os.Stdin),
		db:        db,
		theme:     ui.NewTheme(),
		clipboard: services.SystemClipboard{},
	}
	a.palette = ui.NewPopup(ui.TriggerClick, nil)

	provider := oauth.NewProvider(oauth.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		AuthURL:      cfg.AuthURL,
		TokenURL:     cfg.TokenURL,
		RedirectURL:  cfg.RedirectURL,
	}, httpClient)
	a.auth = services.NewAuthService(provider, store, a.openAuthURL, log.With("component", "auth"))

	api := client.NewHTTPClient(cfg.APIBaseURL, httpClient, a.auth)
	var reporter client.Reporter = api
	if cfg.ReportRelayURL != "" {
		reporter = client.NewRelay(cfg.ReportRelayURL, httpClient, a.auth)
	}

	a.feed = services.NewFeedService(api, a.auth, a.theme, metadata.NewSQLiteRepository(db), log.With("component", "feed"))
	a.artists = services.NewArtistService(api, a.auth, cfg.PageSize, log.With("component", "artist"))
	a.reports = services.NewReportService(reporter, a.auth, a.clipboard, log.With("component", "report"))
	a.settings = services.NewSettingsService(api, a.auth, log.With("component", "settings"))
	a.usernames = services.NewUsernameChecker(ctx, api, a.currentUsername, cfg.UsernameDelay, a.printUsernameResult, log)
	a.archive = services.NewArchiveService(services.ArchiveConfig{
		Bucket:          cfg.Archive.Bucket,
		Region:          cfg.Archive.Region,
		Endpoint:        cfg.Archive.Endpoint,
		AccessKeyID:     cfg.Archive.AccessKeyID,
		SecretAccessKey: cfg.Archive.SecretAccessKey,
		Prefix:          cfg.Archive.Prefix,
	}, nil, log.With("component", "archive"))

	return a, nil
}

// openAuthURL prints the sign-in URL and tries the system browser.
func (a *App) openAuthURL(url string) error {
	fmt.Fprintln(a.out, "Sign in at:", url)
	if err := oauth.OpenBrowser(url); err != nil {
		a.log.Debug(context.Background(), "browser not opened", "error", err)
	}
	return nil
}

func (a *App) currentUsername() string {
	if u := a.settings.Saved(); u != nil {
		return u.Username
	}
	if s := a.auth.Current(); s != nil {
		return s.Username
	}
	return ""
}

func (a *App) isLoggedIn() bool {
	return a.auth.Current().Valid()
}

// status is shown in the prompt.
func (a *App) status() string {
	s := a.auth.Current()
	switch {
	case s == nil:
		return "anonymous"
	case s.Error != "":
		return s.Username + ", session expired"
	}
	return s.Username
}

// Run restores the previous session, loads the first image and serves the
// REPL until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	if err := a.auth.Restore(ctx); err != nil {
		a.log.Error(ctx, "session restore failed", "error", err)
	}
	if err := a.feed.LoadPreferences(ctx); err != nil {
		a.log.Warn(ctx, "rating filter not restored", "error", err)
	}

	fmt.Fprintln(a.out, a.theme.Banner("Nekos.Land")+"  (type 'help' for commands)")
	_ = a.Refresh(ctx, nil)

	runREPL(ctx, a, a.status, a.in)
}

func (a *App) Close() {
	a.usernames.Stop()
	a.feed.Close()
	a.artists.Close()
	if a.db != nil {
		_ = a.db.Close()
	}
}

// fail reports err to the user. A failed silent refresh sends the user
// through sign-in again.
func (a *App) fail(ctx context.Context, what string, err error) error {
	switch {
	case errors.Is(err, services.ErrSuperseded):
		return nil
	case errors.Is(err, services.ErrRefreshFailed):
		fmt.Fprintln(a.out, "Your session expired, signing in again...")
		if lerr := a.Login(ctx, nil); lerr != nil {
			return lerr
		}
	case errors.Is(err, services.ErrNotLoggedIn):
		fmt.Fprintln(a.out, "You need to sign in first: login")
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintf(a.out, "%s: the Nekos API is unreachable\n", what)
	default:
		fmt.Fprintf(a.out, "%s: %v\n", what, err)
	}
	return err
}
