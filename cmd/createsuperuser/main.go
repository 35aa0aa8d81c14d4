// Command createsuperuser provisions a staff account with superuser rights.
//
//	createsuperuser -email admin@example.com -password secret [-name Admin]
//
// Database location and bcrypt cost come from the same environment and
// .env file as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/msomdec/recipe-api/internal/config"
	"github.com/msomdec/recipe-api/internal/repository/sqlite"
	"github.com/msomdec/recipe-api/internal/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("create superuser", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	email := fs.String("email", "", "Email address of the new account")
	password := fs.String("password", "", "Password of the new account")
	name := fs.String("name", "", "Display name")
	envFile := fs.String("env-file", ".env", "Path to .env file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		fs.Usage()
		return fmt.Errorf("-email and -password are required")
	}

	cfg, err := config.Load([]string{"-env-file", *envFile})
	if err != nil {
		return err
	}

	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	auth := service.NewAuthService(db.Users(), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.BcryptCost)
	user, err := auth.CreateSuperuser(ctx, *email, *password, *name)
	if err != nil {
		return err
	}

	slog.Info("superuser created", "id", user.ID, "email", user.Email)
	return nil
}
