// Package cli provides the interactive userctl shell.
//
// It reads commands line by line, prompts for anything missing, and calls the
// user store. Passwords are read from the terminal without echo; when input
// is not a terminal (pipes, tests) they are read as ordinary lines.
//
// Commands:
//   - create [username]       create a user
//   - find <username>         show a user without its password digest
//   - auth [username]         check a password
//   - rename <id> [username]  change a username
//   - passwd <id>             change a password
//   - remove <id>             delete a user
//   - help, exit | quit
//
// The shell is started with App.Run, which blocks until exit or EOF.
package cli
