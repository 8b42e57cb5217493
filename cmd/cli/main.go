package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/jobboard/internal/domain"
	"github.com/yourorg/jobboard/internal/infrastructure/logger"
	"github.com/yourorg/jobboard/internal/repository"
	"github.com/yourorg/jobboard/internal/security/auth"
	"github.com/yourorg/jobboard/pkg/config"
	"github.com/yourorg/jobboard/pkg/database"
)

// jobboardctl is the operator tool: role assignment, user listing, dev
// seeding and dev token minting. It talks straight to the database, the
// same way the API server does.
func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "assign-role":
		assignRole(args)
	case "users":
		listUsers(args)
	case "seed":
		seed(args)
	case "token":
		mintToken(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`jobboardctl - job board admin tool

Commands:
  assign-role  -user <id> -role <employee|manager|hr>   change a user's role
  users                                                 list all users
  seed                                                  create dev users (one per role)
  token        -user <external-id> -email <email>       mint a dev JWT
  help                                                  show this help`)
}

func connect(ctx context.Context) (domain.UserRepository, func()) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("warn", cfg.Environment)
	pool, err := database.NewConnectionPool(ctx, cfg.Postgres, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	db := pool.GetDB()
	if err := repository.EnsureSchema(ctx, db, log); err != nil {
		fmt.Fprintf(os.Stderr, "failed to ensure schema: %v\n", err)
		os.Exit(1)
	}

	return repository.NewPostgresUserRepository(db, log), func() { pool.Close() }
}

func assignRole(args []string) {
	fs := flag.NewFlagSet("assign-role", flag.ExitOnError)
	userID := fs.String("user", "", "user ID")
	role := fs.String("role", "", "role to assign (employee, manager, hr)")
	fs.Parse(args)

	r := domain.Role(*role)
	if *userID == "" || !r.Valid() || r == domain.RoleUnassigned {
		fmt.Println("Error: -user and a valid -role (employee, manager, hr) are required")
		fs.PrintDefaults()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users, done := connect(ctx)
	defer done()

	if err := users.UpdateRole(ctx, *userID, r); err != nil {
		fmt.Fprintf(os.Stderr, "failed to assign role: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("user %s is now %s\n", *userID, r)
}

func listUsers(args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users, done := connect(ctx)
	defer done()

	all, err := users.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list users: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE")
	for _, u := range all {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.FullName, u.Role)
	}
	w.Flush()
}

func seed(args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users, done := connect(ctx)
	defer done()

	seeds := []struct {
		email string
		name  string
		role  domain.Role
	}{
		{"employee@example.com", "Dev Employee", domain.RoleEmployee},
		{"manager@example.com", "Dev Manager", domain.RoleManager},
		{"hr@example.com", "Dev HR", domain.RoleHR},
	}

	for _, s := range seeds {
		u := &domain.User{
			ID:         uuid.NewString(),
			ExternalID: "seed-" + string(s.role),
			Email:      s.email,
			FullName:   s.name,
			Role:       s.role,
		}
		if err := users.Upsert(ctx, u); err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed %s: %v\n", s.email, err)
			os.Exit(1)
		}
		// Upsert keeps a stored role; force the seeded one.
		if err := users.UpdateRole(ctx, u.ID, s.role); err != nil {
			fmt.Fprintf(os.Stderr, "failed to set role for %s: %v\n", s.email, err)
			os.Exit(1)
		}
		fmt.Printf("seeded %s (%s) id=%s external=%s\n", s.email, s.role, u.ID, u.ExternalID)
	}
}

func mintToken(args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	externalID := fs.String("user", "", "external identity subject")
	email := fs.String("email", "", "email claim")
	name := fs.String("name", "", "full name claim")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	fs.Parse(args)

	if *externalID == "" || *email == "" {
		fmt.Println("Error: -user and -email are required")
		fs.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	token, err := tm.MintToken(*externalID, *email, *name, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to mint token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
