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
	SignIn(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, ref string) error
	Delete(ctx context.Context, ref string) error
	Check(ctx context.Context, ref string) error
	History(ctx context.Context, ref string) error
	Suggest(ctx context.Context) error
	Summary(ctx context.Context, ref string) error
	Export(ctx context.Context, path string) error
	Watch(ctx context.Context) error
}

const (
	helpSignedOut = "Available commands: signin, login, (l)ist, help, exit"
	helpSignedIn  = "Available commands: (l)ist, add, edit <id>, delete <id>, check <id>, history <id>, suggest, summary <id>, export [file], watch, logout, help, exit"
)

// commands that need a monitor reference as their first argument
var refCommands = map[string]bool{
	"edit":    true,
	"delete":  true,
	"check":   true,
	"history": true,
	"summary": true,
}

// runREPL starts a simple read–eval–print loop for the PageWatch CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Monitor references are either a monitor id or its 1-based position in
// the last rendered list.
//
// Any errors returned by command handlers are ignored here; handlers
// report their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("pw %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if refCommands[cmd] && len(args) == 0 {
			printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}

		case "signin":
			_ = a.SignIn(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "add":
			_ = a.Add(ctx)

		case "edit":
			_ = a.Edit(ctx, args[0])

		case "delete":
			_ = a.Delete(ctx, args[0])

		case "check":
			_ = a.Check(ctx, args[0])

		case "history":
			_ = a.History(ctx, args[0])

		case "suggest":
			_ = a.Suggest(ctx)

		case "summary":
			_ = a.Summary(ctx, args[0])

		case "export":
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			_ = a.Export(ctx, path)

		case "watch":
			_ = a.Watch(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

// runConfigScreen blocks the client when no store is configured. Only
// help and exit are accepted.
func runConfigScreen(scanner *bufio.Scanner) {
	printlnFn("PageWatch is not configured: no server address is set.")
	printlnFn("Start the client with -a <host:port> or set server_endpoint_addr in the JSON config (-c file).")
	for {
		printlnFn("pw (not configured)> ")
		if !scanner.Scan() {
			return
		}
		switch strings.TrimSpace(scanner.Text()) {
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "":
		default:
			printlnFn("The store is not configured. Restart with a server address, or type exit.")
		}
	}
}
