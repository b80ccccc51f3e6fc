package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"wpmigrate/internal/config"
	"wpmigrate/internal/destination/pgstore"
)

// MigrateCommand brings a Postgres destination schema up to date. The
// SQLite destination migrates itself on open and does not need this.
type MigrateCommand struct {
	DSN string
}

func NewMigrateCommand() *MigrateCommand {
	return &MigrateCommand{}
}

func (cmd *MigrateCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)

	cfg := config.NewConfig()
	fs.StringVar(&cmd.DSN, "dsn", cfg.Destination.DSN, "Postgres connection string (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s migrate -dsn <connection string>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Apply destination schema migrations to a Postgres database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s migrate -dsn \"postgres://localhost:5432/content?sslmode=disable\"\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.DSN == "" {
		return fmt.Errorf("required flag -dsn not provided")
	}

	return nil
}

func (cmd *MigrateCommand) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := pgstore.Connect(ctx, cmd.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := pgstore.Migrate(ctx, store.Pool()); err != nil {
		return err
	}

	fmt.Println("Destination schema is up to date.")
	return nil
}
