// seed-user creates a user together with its default "Main" account.
// With -admin the user is promoted to the Admin role (ops endpoints under /api/admin).
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//     go run ./cmd/seed-user -email demo@example.com -password 'changeme123' -first Demo -last User
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mmdatafocus/fintech_backend/config"
	"github.com/mmdatafocus/fintech_backend/models"
	"github.com/mmdatafocus/fintech_backend/utils"
)

func main() {
	email := flag.String("email", "", "user email (required)")
	password := flag.String("password", "", "user password, 8-72 characters (required)")
	firstName := flag.String("first", "Demo", "first name")
	lastName := flag.String("last", "User", "last name")
	admin := flag.Bool("admin", false, "grant the Admin role")
	migrate := flag.Bool("migrate", false, "run AutoMigrate before seeding")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if *migrate {
		if err := models.MigrateTable(db); err != nil {
			fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
			os.Exit(1)
		}
	}

	user, err := models.RegisterUser(ctx, db, &models.NewUser{
		Email:     *email,
		FirstName: *firstName,
		LastName:  *lastName,
		Password:  *password,
	})
	if err != nil {
		if errors.Is(err, utils.ErrorDuplicateEmail) {
			fmt.Fprintf(os.Stderr, "user %s already exists\n", *email)
			os.Exit(3)
		}
		fmt.Fprintf(os.Stderr, "failed to create user: %v\n", err)
		os.Exit(1)
	}

	if *admin {
		if err := db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", user.ID).
			Update("role", models.UserRoleAdmin).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to grant admin role: %v\n", err)
			os.Exit(1)
		}
		user.Role = models.UserRoleAdmin
	}

	fmt.Printf("created user id=%s email=%s role=%s\n", user.ID, user.Email, user.Role)
}
