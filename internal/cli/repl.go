package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests provide a stub.
type execIface interface {
	Create(ctx context.Context, args []string) error
	Find(ctx context.Context, args []string) error
	Auth(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	Passwd(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
}

const helpText = "Available commands: create [username], find <username>, auth [username], " +
	"rename <id> [username], passwd <id>, remove <id>, exit"

// runREPL reads commands from reader until EOF, "exit" or "quit" and
// dispatches them to a. Handler errors are reported by the handlers
// themselves; the loop keeps going.
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprint(w, "userctl> ")
		line, err := readLine(reader)
		if err != nil {
			fmt.Fprintln(w)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			fmt.Fprintln(w, helpText)

		case "create":
			_ = a.Create(ctx, args)

		case "find":
			_ = a.Find(ctx, args)

		case "auth":
			_ = a.Auth(ctx, args)

		case "rename":
			_ = a.Rename(ctx, args)

		case "passwd":
			_ = a.Passwd(ctx, args)

		case "remove", "rm":
			_ = a.Remove(ctx, args)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
