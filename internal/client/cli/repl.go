package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// ctrlR is what the terminal sends for Ctrl+R.
const ctrlR = "\x12"

// execIface is the command surface the REPL drives. App implements it;
// tests use a recording stub.
type execIface interface {
	isLoggedIn() bool

	Refresh(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Palette(ctx context.Context, args []string) error
	CopyColor(ctx context.Context, args []string) error
	Filter(ctx context.Context, args []string) error
	Like(ctx context.Context, args []string) error
	Save(ctx context.Context, args []string) error
	Follow(ctx context.Context, args []string) error
	Share(ctx context.Context, args []string) error
	Link(ctx context.Context, args []string) error
	Report(ctx context.Context, args []string) error
	Artist(ctx context.Context, args []string) error
	More(ctx context.Context, args []string) error
	Retry(ctx context.Context, args []string) error
	Open(ctx context.Context, args []string) error
	Archive(ctx context.Context, args []string) error

	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	WhoAmI(ctx context.Context, args []string) error

	Settings(ctx context.Context, args []string) error
	Username(ctx context.Context, args []string) error
	Nickname(ctx context.Context, args []string) error
	Bio(ctx context.Context, args []string) error
	SaveSettings(ctx context.Context, args []string) error
	Discard(ctx context.Context, args []string) error
}

const (
	helpAnonymous = "Available commands: (r)efresh or Ctrl+R, show, palette, copycolor <n>, filter [rating], share, link, report [reason], artist [id], more, retry, open <link>, archive, login, exit"
	helpSignedIn  = "Available commands: (r)efresh or Ctrl+R, show, palette, copycolor <n>, filter [rating], like, save, follow, share, link, report [reason], artist [id], more, retry, open <link>, archive, whoami, settings, username <name>, nickname <text>, bio <text>, savesettings, discard, logout, exit"
)

// runREPL reads commands from scanner until EOF, "exit" or "quit", or until
// ctx is cancelled. The first token selects the command; the rest are its
// arguments. A line containing Ctrl+R refreshes the image regardless of what
// else was typed. Handlers print their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("nl> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if strings.Contains(line, ctrlR) {
			_ = a.Refresh(ctx, nil)
			continue
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "help", "?":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "r", "refresh":
			_ = a.Refresh(ctx, args)
		case "show":
			_ = a.Show(ctx, args)
		case "palette":
			_ = a.Palette(ctx, args)
		case "copycolor":
			_ = a.CopyColor(ctx, args)
		case "filter":
			_ = a.Filter(ctx, args)
		case "like":
			_ = a.Like(ctx, args)
		case "save":
			_ = a.Save(ctx, args)
		case "follow":
			_ = a.Follow(ctx, args)
		case "share":
			_ = a.Share(ctx, args)
		case "link":
			_ = a.Link(ctx, args)
		case "report":
			_ = a.Report(ctx, args)
		case "artist":
			_ = a.Artist(ctx, args)
		case "more":
			_ = a.More(ctx, args)
		case "retry":
			_ = a.Retry(ctx, args)
		case "open":
			_ = a.Open(ctx, args)
		case "archive":
			_ = a.Archive(ctx, args)

		case "login":
			_ = a.Login(ctx, args)
		case "logout":
			_ = a.Logout(ctx, args)
		case "whoami":
			_ = a.WhoAmI(ctx, args)

		case "settings":
			_ = a.Settings(ctx, args)
		case "username":
			_ = a.Username(ctx, args)
		case "nickname":
			_ = a.Nickname(ctx, args)
		case "bio":
			_ = a.Bio(ctx, args)
		case "savesettings":
			_ = a.SaveSettings(ctx, args)
		case "discard":
			_ = a.Discard(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
