package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/Nekos-API/Nekos.Land/internal/client/models"
	"github.com/Nekos-API/Nekos.Land/internal/client/services"
	"github.com/Nekos-API/Nekos.Land/internal/client/ui"
	"github.com/Nekos-API/Nekos.Land/internal/linkx"
)

const (
	defaultWidth = 80
	maxWidth     = 100
)

// termWidth reports the usable width of stdout. Tests replace it.
var termWidth = func() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Faint(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff8787"))
)

func frame(gradient, body string) string {
	w := min(termWidth(), maxWidth) - 2
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(gradient)).
		Padding(0, 1).
		Width(w).
		Render(body)
}

func field(label, value string) string {
	return labelStyle.Render(label+":") + " " + value
}

func mark(on bool, yes, no string) string {
	if on {
		return yes
	}
	return no
}

func renderImage(st services.FeedState, gradient string, loggedIn, showPalette bool) string {
	img := st.Image
	if img == nil {
		switch {
		case st.Loading:
			return "Loading..."
		case st.Err != nil:
			return errStyle.Render("Could not load an image. Type refresh to try again.")
		}
		return "No image loaded."
	}

	lines := []string{
		field("Image", img.ID),
		field("File", img.FileURL),
		field("Rating", string(img.AgeRating)) + "  " + mutedStyle.Render(strings.ReplaceAll(string(img.VerificationStatus), "_", " ")),
	}
	if img.SourceURL != "" {
		name := img.SourceName
		if name == "" {
			name = linkx.NameFromURL(img.SourceURL)
		}
		lines = append(lines, field("Source", name+" "+mutedStyle.Render(img.SourceURL)))
	}
	if img.Artist != nil {
		lines = append(lines, field("Artist", img.Artist.Name+" "+mutedStyle.Render("("+img.Artist.ID+")")))
	}
	if loggedIn {
		lines = append(lines, strings.Join([]string{
			mark(st.Liked, "♥ liked", "♡ like"),
			mark(st.Saved, "★ saved", "☆ save"),
			mark(st.Following, "✓ following", "+ follow"),
		}, "   "))
	}
	if st.Reported {
		lines = append(lines, mutedStyle.Render("Reported. Thanks for helping us moderate."))
	}
	if showPalette {
		lines = append(lines, "", labelStyle.Render("Palette"), ui.Palette(img.Palette))
	}
	lines = append(lines, "", mutedStyle.Render("Filter: "+st.Ratings.String()))
	if st.Err != nil {
		lines = append(lines, errStyle.Render("Last refresh failed, showing the previous image."))
	}
	return frame(gradient, strings.Join(lines, "\n"))
}

func renderRatings(set models.RatingSet) string {
	parts := make([]string, len(models.AllAgeRatings))
	for i, r := range models.AllAgeRatings {
		parts[i] = mark(set.Has(r), "[x] ", "[ ] ") + string(r)
	}
	return strings.Join(parts, "  ")
}

func renderArtist(v services.ArtistView, gradient string, loggedIn bool) string {
	ar := v.Artist
	if ar == nil {
		return "No artist open."
	}

	lines := []string{labelStyle.Render(ar.Name)}
	if len(ar.Aliases) > 0 {
		lines = append(lines, mutedStyle.Render("aka "+strings.Join(ar.Aliases, ", ")))
	}
	lines = append(lines, fmt.Sprintf("%d followers · %d images", ar.FollowerCount, ar.ImageCount))
	if loggedIn {
		lines = append(lines, mark(v.Following, "✓ following", "+ follow"))
	}
	if len(ar.Links) > 0 {
		lines = append(lines, "", labelStyle.Render("Links"))
		for _, l := range ar.Links {
			line := "  " + linkx.NameFromURL(l) + " " + mutedStyle.Render(l)
			if logo := linkx.LogoURL(l); logo != "" {
				line += mutedStyle.Render(" [logo " + logo + "]")
			}
			lines = append(lines, line)
		}
	}

	lines = append(lines, "", labelStyle.Render("Gallery"))
	for i, img := range v.Images {
		lines = append(lines, fmt.Sprintf("%3d. %s  %s", i+1, img.ID, mutedStyle.Render(string(img.AgeRating))))
	}
	switch {
	case v.Loading:
		lines = append(lines, "Loading...")
	case v.Err != nil:
		lines = append(lines, errStyle.Render("Could not load more images. Type retry to try again."))
	case v.Done && len(v.Images) == 0:
		lines = append(lines, mutedStyle.Render("This artist has no images yet."))
	case v.Done:
		lines = append(lines, mutedStyle.Render("That's all of them."))
	default:
		lines = append(lines, mutedStyle.Render("Type more to load more."))
	}
	return frame(gradient, strings.Join(lines, "\n"))
}

func renderSettings(u *models.User, form services.SettingsForm, dirty bool, gradient string) string {
	if u == nil {
		return "Settings not loaded."
	}
	lines := []string{
		labelStyle.Render("Account settings"),
		field("Email", u.CensoredEmail()),
		field("Username", "@"+form.Username),
		field("Nickname", form.Nickname),
		field("Biography", form.Biography),
	}
	if dirty {
		lines = append(lines, "", mutedStyle.Render("You have unsaved changes: savesettings or discard."))
	}
	return frame(gradient, strings.Join(lines, "\n"))
}

// usernameMessage describes an availability result, or returns "" when
// there is nothing to say.
func usernameMessage(res services.UsernameResult) string {
	switch res.Status {
	case services.UsernameInvalid:
		return "Usernames may only use lowercase letters, digits, '_' and '.'."
	case services.UsernameShort:
		return fmt.Sprintf("Usernames need at least %d characters.", models.UsernameMinLen)
	case services.UsernameLoading:
		return "Checking @" + res.Username + "..."
	case services.UsernameAvailable:
		return "@" + res.Username + " is available."
	case services.UsernameUnavailable:
		return "@" + res.Username + " is already taken."
	case services.UsernameError:
		return "Could not check @" + res.Username + ", try again later."
	}
	return ""
}
