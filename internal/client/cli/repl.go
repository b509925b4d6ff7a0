package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Refresh(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Search(ctx context.Context) error
	New(ctx context.Context) error
	Drafts(ctx context.Context) error
	Submit(ctx context.Context, args []string) error
	Discard(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Toggle(ctx context.Context, args []string) error
	SetStatus(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit", or ctx is
// done. Prompts inside commands read from the same reader.
//
//	Always:
//	  help, refresh, list [public|all|bhk N], show <id>, search, exit
//	Not logged in:
//	  login
//	Logged in:
//	  whoami, list mine, new, drafts, submit <draft>, discard <draft>,
//	  edit <id>, toggle <id>, status <id> active|inactive, delete <id>, logout
//
// Command errors are reported to the user and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("rs %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (l)ist [mine|public|all|bhk N], show, search, new, drafts, submit, discard, edit, toggle, status, delete, refresh, whoami, logout, exit")
			} else {
				printlnFn("Available commands: login, (l)ist [public|all|bhk N], show, search, refresh, exit")
			}
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "whoami":
			cmdErr = a.WhoAmI(ctx)
		case "refresh":
			cmdErr = a.Refresh(ctx)
		case "l", "list":
			cmdErr = a.List(ctx, args)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "search":
			cmdErr = a.Search(ctx)
		case "new":
			cmdErr = a.New(ctx)
		case "drafts":
			cmdErr = a.Drafts(ctx)
		case "submit":
			cmdErr = a.Submit(ctx, args)
		case "discard":
			cmdErr = a.Discard(ctx, args)
		case "edit":
			cmdErr = a.Edit(ctx, args)
		case "toggle":
			cmdErr = a.Toggle(ctx, args)
		case "status":
			cmdErr = a.SetStatus(ctx, args)
		case "delete":
			cmdErr = a.Delete(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn(explain(cmdErr))
		}
		if err != nil {
			return
		}
	}
}
