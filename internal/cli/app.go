package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/userstore/internal/common"
	"github.com/dmitrijs2005/userstore/internal/models"
)

// UserStore is the part of userstore.Store the shell uses.
type UserStore interface {
	CreateUser(ctx context.Context, username, password string) (models.ID, error)
	FindByUsername(ctx context.Context, username string) (*models.SafeUser, error)
	Authenticate(ctx context.Context, username, password string) (bool, error)
	SetUsername(ctx context.Context, id models.ID, username string) (bool, error)
	SetPassword(ctx context.Context, id models.ID, password string) (bool, error)
	RemoveUser(ctx context.Context, id models.ID) (bool, error)
}

var errUsage = errors.New("usage")

type App struct {
	store  UserStore
	reader *bufio.Reader
	out    io.Writer
}

func NewApp(store UserStore, in io.Reader, out io.Writer) *App {
	return &App{store: store, reader: bufio.NewReader(in), out: out}
}

// Run starts the shell and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "userctl (type 'help' for commands)")
	runREPL(ctx, a, a.reader, a.out)
}

func (a *App) Create(ctx context.Context, args []string) error {
	username, err := a.argOrPrompt(args, 0, "Enter user name")
	if err != nil {
		return a.fail(err)
	}

	password, err := a.password()
	if err != nil {
		return a.fail(err)
	}

	id, err := a.store.CreateUser(ctx, username, password)
	if err != nil {
		return a.fail(err)
	}

	fmt.Fprintf(a.out, "Created user %s\n", id)
	return nil
}

func (a *App) Find(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return a.usage("find <username>")
	}

	u, err := a.store.FindByUsername(ctx, args[0])
	if err != nil {
		return a.fail(err)
	}
	if u == nil {
		fmt.Fprintln(a.out, "No such user")
		return nil
	}

	fmt.Fprintf(a.out, "id:       %s\nusername: %s\ncreated:  %s\nupdated:  %s\n",
		u.ID, u.Username, u.CreatedAt.Format(time.RFC3339Nano), u.UpdatedAt.Format(time.RFC3339Nano))
	return nil
}

func (a *App) Auth(ctx context.Context, args []string) error {
	username, err := a.argOrPrompt(args, 0, "Enter user name")
	if err != nil {
		return a.fail(err)
	}

	password, err := a.password()
	if err != nil {
		return a.fail(err)
	}

	ok, err := a.store.Authenticate(ctx, username, password)
	if err != nil {
		return a.fail(err)
	}
	if ok {
		fmt.Fprintln(a.out, "Authenticated")
	} else {
		fmt.Fprintln(a.out, "Invalid username or password")
	}
	return nil
}

func (a *App) Rename(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return a.usage("rename <id> [username]")
	}

	username, err := a.argOrPrompt(args, 1, "Enter new user name")
	if err != nil {
		return a.fail(err)
	}

	if _, err := a.store.SetUsername(ctx, models.ID(args[0]), username); err != nil {
		return a.fail(err)
	}

	fmt.Fprintln(a.out, "Success!")
	return nil
}

func (a *App) Passwd(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return a.usage("passwd <id>")
	}

	password, err := a.password()
	if err != nil {
		return a.fail(err)
	}

	if _, err := a.store.SetPassword(ctx, models.ID(args[0]), password); err != nil {
		return a.fail(err)
	}

	fmt.Fprintln(a.out, "Success!")
	return nil
}

func (a *App) Remove(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return a.usage("remove <id>")
	}

	ok, err := a.store.RemoveUser(ctx, models.ID(args[0]))
	if err != nil {
		return a.fail(err)
	}
	if !ok {
		fmt.Fprintln(a.out, "No such user")
		return nil
	}

	fmt.Fprintln(a.out, "Removed")
	return nil
}

func (a *App) argOrPrompt(args []string, i int, prompt string) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	return GetSimpleText(a.reader, prompt, a.out)
}

func (a *App) password() (string, error) {
	pw, err := GetPassword(a.reader, a.out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func (a *App) usage(text string) error {
	fmt.Fprintln(a.out, "Usage:", text)
	return errUsage
}

func (a *App) fail(err error) error {
	fmt.Fprintln(a.out, "Error:", describe(err))
	return err
}

// describe turns store errors into short messages for the shell.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrDuplicateUsername):
		return "username already taken"
	case errors.Is(err, common.ErrUserNotFound):
		return "no such user"
	case errors.Is(err, common.ErrInvalidUsername):
		return "username must start with a letter or underscore and contain only letters, digits, '_' or '-'"
	}
	return err.Error()
}
