package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"pixelwallet/internal/auth"
	"pixelwallet/internal/storage"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("pixelwallet-admin", flag.ContinueOnError)
	fs.SetOutput(stderr)

	add := fs.Bool("add", false, "Create a user account")
	remove := fs.Bool("remove", false, "Delete a user account and its transactions")
	username := fs.String("user", "", "Username (with -add) or username/email (with -remove)")
	email := fs.String("email", "", "Email address (with -add)")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", "./data/pixelwallet.db", "Path to database file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Allow overriding db path via env var if the flag was left at its default
	if path := os.Getenv("SQLITE_DB_PATH"); path != "" && *dbPath == "./data/pixelwallet.db" {
		*dbPath = path
	}

	switch {
	case *add == *remove:
		fmt.Fprintln(stdout, "Usage: pixelwallet-admin (-add -user <username> -email <email> | -remove -user <username-or-email>) [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("exactly one of -add or -remove is required")
	case *add:
		return addUser(stdin, stdout, *dbPath, *username, *email, *passwordFlag)
	default:
		return removeUser(stdout, *dbPath, *username)
	}
}

func addUser(stdin io.Reader, stdout io.Writer, dbPath, username, email, password string) error {
	if username == "" || email == "" {
		return fmt.Errorf("missing required flags: user, email")
	}

	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout) // newline after password input
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	hash, err := auth.HashPassword(password, auth.DefaultBcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := repo.CreateUser(context.Background(), username, email, hash)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", username, id)
	return nil
}

func removeUser(stdout io.Writer, dbPath, usernameOrEmail string) error {
	if usernameOrEmail == "" {
		return fmt.Errorf("missing required flag: user")
	}

	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer repo.Close()

	removed, err := repo.DeleteUser(context.Background(), usernameOrEmail)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if removed == 0 {
		return fmt.Errorf("no user matches %q", usernameOrEmail)
	}

	fmt.Fprintf(stdout, "User %s deleted\n", usernameOrEmail)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	// Prompt without echo when attached to a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal input (tests, pipes)
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
