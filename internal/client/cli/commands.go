package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Nekos-API/Nekos.Land/internal/client/models"
	"github.com/Nekos-API/Nekos.Land/internal/client/services"
	"github.com/Nekos-API/Nekos.Land/internal/client/ui"
)

// syncWriter serializes writes from the REPL and the username checker.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (a *App) Refresh(ctx context.Context, _ []string) error {
	a.viewingArtist = false
	a.route.ImageID = ""
	if err := a.feed.Refresh(ctx); err != nil {
		return a.fail(ctx, "refresh", err)
	}
	return a.Show(ctx, nil)
}

func (a *App) Show(ctx context.Context, _ []string) error {
	a.viewingArtist = false
	fmt.Fprintln(a.out, renderImage(a.feed.State(), a.theme.Gradient(), a.isLoggedIn(), a.palette.IsOpen()))
	return nil
}

func (a *App) Palette(ctx context.Context, _ []string) error {
	a.palette.Click()
	if !a.palette.IsOpen() {
		fmt.Fprintln(a.out, "Palette hidden.")
		return nil
	}
	return a.Show(ctx, nil)
}

func (a *App) CopyColor(ctx context.Context, args []string) error {
	img := a.feed.State().Image
	if img == nil {
		return a.fail(ctx, "copy colour", services.ErrNoImage)
	}
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: copycolor <n>")
		return nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(img.Palette) {
		fmt.Fprintf(a.out, "Pick a colour between 1 and %d.\n", len(img.Palette))
		return nil
	}
	color := img.Palette[n-1]
	if err := a.clipboard.WriteAll(color); err != nil {
		return a.fail(ctx, "copy colour", err)
	}
	fmt.Fprintf(a.out, "Copied %s %s\n", ui.Swatch(color), color)
	return nil
}

// Filter lists the rating filter, or toggles one rating and loads a new
// image with the changed filter.
func (a *App) Filter(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, renderRatings(a.feed.State().Ratings))
		return nil
	}
	r, err := models.ParseAgeRating(args[0])
	if err != nil {
		fmt.Fprintf(a.out, "Unknown rating %q.\n", args[0])
		return err
	}
	set, err := a.feed.ToggleRating(ctx, r)
	if errors.Is(err, models.ErrLastRating) {
		fmt.Fprintln(a.out, "At least one rating must stay selected.")
		return err
	}
	if err != nil {
		return a.fail(ctx, "filter", err)
	}
	fmt.Fprintln(a.out, renderRatings(set))
	return a.Refresh(ctx, nil)
}

func (a *App) Like(ctx context.Context, _ []string) error {
	on, err := a.feed.Like(ctx)
	if err != nil {
		return a.fail(ctx, "like", err)
	}
	fmt.Fprintln(a.out, mark(on, "Liked.", "Like removed."))
	return nil
}

func (a *App) Save(ctx context.Context, _ []string) error {
	on, err := a.feed.Save(ctx)
	if err != nil {
		return a.fail(ctx, "save", err)
	}
	fmt.Fprintln(a.out, mark(on, "Saved.", "Removed from saved images."))
	return nil
}

// Follow follows the open artist, or the current image's artist when the
// feed is shown.
func (a *App) Follow(ctx context.Context, _ []string) error {
	var (
		on  bool
		err error
	)
	if a.viewingArtist {
		on, err = a.artists.Follow(ctx)
	} else {
		on, err = a.feed.Follow(ctx)
	}
	if err != nil {
		return a.fail(ctx, "follow", err)
	}
	fmt.Fprintln(a.out, mark(on, "Following.", "Unfollowed."))
	return nil
}

func (a *App) Share(ctx context.Context, _ []string) error {
	img := a.feed.State().Image
	if img == nil {
		return a.fail(ctx, "share", services.ErrNoImage)
	}
	if err := a.clipboard.WriteAll(img.FileURL); err != nil {
		return a.fail(ctx, "share", err)
	}
	fmt.Fprintln(a.out, "Image URL copied to the clipboard.")
	return nil
}

func (a *App) Link(ctx context.Context, _ []string) error {
	img := a.feed.State().Image
	if img == nil {
		return a.fail(ctx, "link", services.ErrNoImage)
	}
	link := ui.ShareLink(a.cfg.SiteURL, img.ID)
	if err := a.clipboard.WriteAll(link); err != nil {
		a.log.Debug(ctx, "link not copied", "error", err)
	}
	fmt.Fprintln(a.out, link)
	return nil
}

// Report opens the report dialog for the current image. Images that are
// not verified yet only get a notice.
func (a *App) Report(ctx context.Context, args []string) error {
	st := a.feed.State()
	if st.Image == nil {
		return a.fail(ctx, "report", services.ErrNoImage)
	}
	if notice := a.reports.Notice(st.Image); notice != "" {
		fmt.Fprintln(a.out, notice)
		return nil
	}
	if st.Reported {
		fmt.Fprintln(a.out, "You already reported this image.")
		return nil
	}

	a.route.Modals.Open(ui.ModalReport)
	defer a.route.Modals.Close(ui.ModalReport)

	reason := strings.Join(args, " ")
	if len(args) == 0 {
		var err error
		if reason, err = GetSimpleText(a.in, "Why are you reporting this image? (optional, Enter to skip)", a.out); err != nil {
			return err
		}
	}
	if len(reason) > services.MaxReasonLen {
		fmt.Fprintf(a.out, "The reason can be at most %d characters long.\n", services.MaxReasonLen)
		return nil
	}
	res, err := a.reports.Report(ctx, st.Image, reason)
	if err != nil {
		return a.fail(ctx, "report", err)
	}
	a.feed.MarkReported()

	switch res.Outcome {
	case services.ReportSent:
		fmt.Fprintln(a.out, "Thanks! The image was reported to the moderators.")
	case services.ReportCopied:
		fmt.Fprintln(a.out, "A report was copied to your clipboard. Paste it in the #image-reports channel of the Nekos API Discord server.")
	}
	return nil
}

func (a *App) Artist(ctx context.Context, args []string) error {
	id := ""
	if len(args) > 0 {
		id = args[0]
	} else if img := a.feed.State().Image; img != nil && img.Artist != nil {
		id = img.Artist.ID
	}
	if id == "" {
		return a.fail(ctx, "artist", services.ErrNoArtist)
	}

	if _, err := a.artists.Open(ctx, id); err != nil {
		return a.fail(ctx, "artist", err)
	}
	a.viewingArtist = true
	a.showArtist()
	return nil
}

// More reports the last gallery cell as visible.
func (a *App) More(ctx context.Context, _ []string) error {
	started, err := a.artists.More(ctx)
	if err != nil {
		return a.fail(ctx, "gallery", err)
	}
	if !started {
		fmt.Fprintln(a.out, "Nothing more to load.")
	}
	a.showArtist()
	return nil
}

func (a *App) Retry(ctx context.Context, _ []string) error {
	if _, err := a.artists.Retry(ctx); err != nil {
		return a.fail(ctx, "gallery", err)
	}
	a.showArtist()
	return nil
}

func (a *App) showArtist() {
	fmt.Fprintln(a.out, renderArtist(a.artists.View(), a.theme.Gradient(), a.isLoggedIn()))
}

// Open applies a site link: the image parameter pins an image and the modal
// parameter opens the listed dialogs.
func (a *App) Open(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: open <link>")
		return nil
	}
	r, err := ui.ParseRoute(args[0])
	if err != nil {
		return a.fail(ctx, "open", err)
	}

	if r.ImageID != "" {
		if err := a.feed.Pin(ctx, r.ImageID); err != nil {
			return a.fail(ctx, "open", err)
		}
		a.viewingArtist = false
		_ = a.Show(ctx, nil)
	}
	a.route = ui.Route{ImageID: r.ImageID}

	if r.Modals.Has(ui.ModalSettings) {
		if err := a.Settings(ctx, nil); err != nil {
			return err
		}
	}
	if r.Modals.Has(ui.ModalReport) {
		return a.Report(ctx, nil)
	}
	return nil
}

func (a *App) Archive(ctx context.Context, _ []string) error {
	key, err := a.archive.Archive(ctx, a.feed.State().Image)
	if errors.Is(err, services.ErrArchiveDisabled) {
		fmt.Fprintln(a.out, "Archiving is not configured.")
		return err
	}
	if err != nil {
		return a.fail(ctx, "archive", err)
	}
	fmt.Fprintln(a.out, "Archived as", key)
	return nil
}

// Login signs in through the browser and reloads the current image so its
// liked and saved flags belong to the new user.
func (a *App) Login(ctx context.Context, _ []string) error {
	s, err := a.auth.Login(ctx)
	if err != nil {
		a.log.Error(ctx, "login failed", "error", err)
		fmt.Fprintln(a.out, "Sign-in failed:", err)
		return err
	}
	fmt.Fprintf(a.out, "Signed in as @%s.\n", s.Username)

	if img := a.feed.State().Image; img != nil {
		if err := a.feed.Pin(ctx, img.ID); err != nil {
			a.log.Warn(ctx, "image not reloaded after sign-in", "error", err)
		}
	}
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return a.fail(ctx, "logout", err)
	}
	a.settings.Discard()
	a.route.Modals.Close(ui.ModalSettings)
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *App) WhoAmI(ctx context.Context, _ []string) error {
	s := a.auth.Current()
	if s == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	name := s.DisplayName
	if name == "" {
		name = s.Username
	}
	fmt.Fprintf(a.out, "%s (@%s), id %s\n", name, s.Username, s.UserID)
	if s.Error != "" {
		fmt.Fprintln(a.out, "Your session expired. Type login to sign in again.")
	}
	return nil
}

func (a *App) Settings(ctx context.Context, _ []string) error {
	if _, err := a.settings.Load(ctx); err != nil {
		return a.fail(ctx, "settings", err)
	}
	a.route.Modals.Open(ui.ModalSettings)
	a.showSettings()
	return nil
}

func (a *App) showSettings() {
	form, dirty := a.settings.Draft()
	fmt.Fprintln(a.out, renderSettings(a.settings.Saved(), form, dirty, a.theme.Gradient()))
}

func (a *App) requireSettings() bool {
	if a.settings.Saved() != nil {
		return true
	}
	fmt.Fprintln(a.out, "Open your settings first: settings")
	return false
}

// Username edits the draft username. Availability is reported once the
// user stops typing.
func (a *App) Username(ctx context.Context, args []string) error {
	if !a.requireSettings() {
		return services.ErrSettingsNotLoaded
	}
	v := strings.Join(args, "")
	a.settings.SetUsername(v)
	a.usernames.Input(v)
	return nil
}

func (a *App) Nickname(ctx context.Context, args []string) error {
	if !a.requireSettings() {
		return services.ErrSettingsNotLoaded
	}
	a.settings.SetNickname(strings.Join(args, " "))
	a.showSettings()
	return nil
}

func (a *App) Bio(ctx context.Context, args []string) error {
	if !a.requireSettings() {
		return services.ErrSettingsNotLoaded
	}
	bio := strings.Join(args, " ")
	if bio == "" {
		var err error
		if bio, err = GetMultiline(a.in, "Biography", a.out); err != nil {
			return err
		}
	}
	a.settings.SetBiography(bio)
	a.showSettings()
	return nil
}

// SaveSettings submits the draft. A username that was found taken is not
// submitted.
func (a *App) SaveSettings(ctx context.Context, _ []string) error {
	if !a.requireSettings() {
		return services.ErrSettingsNotLoaded
	}
	form, _ := a.settings.Draft()
	if res := a.usernames.Result(); res.Username == form.Username && res.Status == services.UsernameUnavailable {
		fmt.Fprintln(a.out, usernameMessage(res))
		return nil
	}

	_, err := a.settings.Save(ctx)
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, services.ErrNothingToSave):
		fmt.Fprintln(a.out, "Nothing to save.")
		return nil
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			fmt.Fprintln(a.out, fieldError(fe))
		}
		return err
	case err != nil:
		return a.fail(ctx, "save settings", err)
	}

	a.route.Modals.Close(ui.ModalSettings)
	fmt.Fprintln(a.out, "Settings saved.")
	a.showSettings()
	return nil
}

func (a *App) Discard(ctx context.Context, _ []string) error {
	a.settings.Discard()
	a.usernames.Stop()
	a.route.Modals.Close(ui.ModalSettings)
	fmt.Fprintln(a.out, "Changes discarded.")
	return nil
}

func fieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required."
	case "min":
		return fmt.Sprintf("%s needs at least %s characters.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s can be at most %s characters long.", fe.Field(), fe.Param())
	case "username":
		return "Usernames may only use lowercase letters, digits, '_' and '.'."
	}
	return fe.Error()
}

func (a *App) printUsernameResult(res services.UsernameResult) {
	if msg := usernameMessage(res); msg != "" {
		fmt.Fprintln(a.out, msg)
	}
}
