package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/exersio/internal/client/client"
	"github.com/dmitrijs2005/exersio/internal/client/services"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App implements
// it; tests use a recording stub.
type execIface interface {
	isLoggedIn() bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error

	ListExercises(ctx context.Context) error
	ShowExercise(ctx context.Context, id string) error
	AddExercise(ctx context.Context) error
	EditExercise(ctx context.Context, id string) error
	DeleteExercise(ctx context.Context, id string) error
	Share(ctx context.Context, id, clubID string) error
	Upload(ctx context.Context, id, path string) error

	ListSessions(ctx context.Context) error
	AddSession(ctx context.Context) error
	DeleteSession(ctx context.Context, id string) error

	Sync(ctx context.Context) error
	Download(ctx context.Context) error
	Conflicts(ctx context.Context) error
	Resolve(ctx context.Context, kind, id, choice string) error

	Clubs(ctx context.Context) error
	AddClub(ctx context.Context) error
	AddMember(ctx context.Context, clubID, userID, role string) error

	Clear(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, status, exit"
	helpLoggedIn  = `Available commands:
  status                              offline panel: mode, pending and conflict counts
  exercises | exercise <id>           list / show exercises
  addexercise | editexercise <id>     create / edit an exercise
  deleteexercise <id>
  sessions | addsession | deletesession <id>
  sync | download                     push local changes / pull server data
  conflicts | resolve <kind> <id> <local|server>
  share <exerciseId> <clubId> | upload <exerciseId> <file>
  clubs | addclub | addmember <clubId> <userId> [role]
  clear                               wipe offline data
  logout | exit`
)

// usage pairs a command with its positional arguments.
var usage = map[string]string{
	"exercise":       "exercise <id>",
	"editexercise":   "editexercise <id>",
	"deleteexercise": "deleteexercise <id>",
	"deletesession":  "deletesession <id>",
	"resolve":        "resolve <exercises|sessions> <id> <local|server>",
	"share":          "share <exerciseId> <clubId>",
	"upload":         "upload <exerciseId> <file>",
	"addmember":      "addmember <clubId> <userId> [role]",
}

// publicCommands work without a signed-in user.
var publicCommands = map[string]bool{
	"help": true, "register": true, "login": true, "status": true, "exit": true, "quit": true,
}

// runREPL reads commands line by line from reader and dispatches them to a.
// The loop exits on EOF, on "exit"/"quit", or when ctx is done. Handler
// errors are printed and the loop carries on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("exersio %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if !publicCommands[cmd] && !a.isLoggedIn() {
			if _, known := dispatch[cmd]; known {
				printlnFn("Please login first")
				continue
			}
		}

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if cmd == "help" {
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
			continue
		}

		h, ok := dispatch[cmd]
		if !ok {
			printlnFn("Unknown command:", cmd)
			continue
		}
		if len(args) < h.minArgs {
			printlnFn("Usage:", usage[cmd])
			continue
		}
		if err := h.run(ctx, a, args); err != nil {
			printlnFn("Error:", describe(err))
		}
	}
}

type handler struct {
	minArgs int
	run     func(ctx context.Context, a execIface, args []string) error
}

func noArgs(fn func(execIface, context.Context) error) handler {
	return handler{run: func(ctx context.Context, a execIface, _ []string) error { return fn(a, ctx) }}
}

func oneArg(fn func(execIface, context.Context, string) error) handler {
	return handler{minArgs: 1, run: func(ctx context.Context, a execIface, args []string) error {
		return fn(a, ctx, args[0])
	}}
}

func twoArgs(fn func(execIface, context.Context, string, string) error) handler {
	return handler{minArgs: 2, run: func(ctx context.Context, a execIface, args []string) error {
		return fn(a, ctx, args[0], args[1])
	}}
}

var dispatch = map[string]handler{
	"help":           {},
	"exit":           {},
	"quit":           {},
	"register":       noArgs(execIface.Register),
	"login":          noArgs(execIface.Login),
	"logout":         noArgs(execIface.Logout),
	"status":         noArgs(execIface.Status),
	"exercises":      noArgs(execIface.ListExercises),
	"exercise":       oneArg(execIface.ShowExercise),
	"addexercise":    noArgs(execIface.AddExercise),
	"editexercise":   oneArg(execIface.EditExercise),
	"deleteexercise": oneArg(execIface.DeleteExercise),
	"share":          twoArgs(execIface.Share),
	"upload":         twoArgs(execIface.Upload),
	"sessions":       noArgs(execIface.ListSessions),
	"addsession":     noArgs(execIface.AddSession),
	"deletesession":  oneArg(execIface.DeleteSession),
	"sync":           noArgs(execIface.Sync),
	"download":       noArgs(execIface.Download),
	"conflicts":      noArgs(execIface.Conflicts),
	"resolve": {minArgs: 3, run: func(ctx context.Context, a execIface, args []string) error {
		return a.Resolve(ctx, args[0], args[1], args[2])
	}},
	"clubs":   noArgs(execIface.Clubs),
	"addclub": noArgs(execIface.AddClub),
	"addmember": {minArgs: 2, run: func(ctx context.Context, a execIface, args []string) error {
		role := "member"
		if len(args) > 2 {
			role = args[2]
		}
		return a.AddMember(ctx, args[0], args[1], role)
	}},
	"clear": noArgs(execIface.Clear),
}

// describe turns the errors users are expected to hit into short hints.
func describe(err error) string {
	switch {
	case errors.Is(err, services.ErrOffline):
		return "server is unreachable, try again when online"
	case errors.Is(err, services.ErrSyncInProgress):
		return "a sync is already running"
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, client.ErrTokenExpired):
		return "not signed in to the server, please login again"
	case errors.Is(err, services.ErrNotSynced):
		return "this exercise exists only locally, run sync first"
	}
	return err.Error()
}
