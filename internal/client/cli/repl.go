package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	Photos(ctx context.Context, paths []string) error
	List(ctx context.Context, tab string) error
	Show(ctx context.Context, uid string) error
	Align(ctx context.Context, uid string) error
	Skip(ctx context.Context, uid string) error
	Refresh(ctx context.Context) error
	Notifications(ctx context.Context) error
	Destiny(ctx context.Context) error
	Chat(ctx context.Context, uid string) error
}

const (
	helpLoggedOut = "Available commands: register, login, exit"
	helpLoggedIn  = "Available commands: (l)ist [recommendations|matches|awaiting], show <id>, align <id>, skip <id>, " +
		"refresh, (n)otifications, destiny, chat <id>, profile, photos [files...], logout, exit"
)

// runREPL starts a simple read-eval-print loop for the Aligned CLI.
//
// It reads a line from reader, parses the first token as the command and
// dispatches to methods on 'a'. Commands that act on a candidate take its id
// as the first argument. Unknown commands are reported back to the user. The
// loop exits on EOF or when the user types "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("aligned %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if needsLogin(cmd) && !a.isLoggedIn() {
			printlnFn("Please login first")
			continue
		}
		if needsID(cmd) && len(args) == 0 {
			printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "photos":
			_ = a.Photos(ctx, args)

		case "l", "list":
			tab := ""
			if len(args) > 0 {
				tab = args[0]
			}
			_ = a.List(ctx, tab)

		case "show":
			_ = a.Show(ctx, args[0])

		case "align":
			_ = a.Align(ctx, args[0])

		case "skip":
			_ = a.Skip(ctx, args[0])

		case "refresh":
			_ = a.Refresh(ctx)

		case "n", "notifications":
			_ = a.Notifications(ctx)

		case "destiny":
			_ = a.Destiny(ctx)

		case "chat":
			_ = a.Chat(ctx, args[0])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func needsLogin(cmd string) bool {
	switch cmd {
	case "help", "register", "login", "exit", "quit":
		return false
	}
	return true
}

func needsID(cmd string) bool {
	switch cmd {
	case "show", "align", "skip", "chat":
		return true
	}
	return false
}
