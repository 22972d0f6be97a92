package commands

import (
	"fmt"
	"time"

	"github.com/benvon/quizmify/internal/database"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewUsersCmd creates the users command
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect stored users",
	}

	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersShowCmd())

	return cmd
}

func newUsersListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			users, err := database.NewUserRepository(db).List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			if len(users) == 0 {
				fmt.Println("No users")
				return nil
			}

			for _, u := range users {
				verified := "unverified"
				if u.EmailVerified != nil {
					verified = "verified " + u.EmailVerified.Format(time.RFC3339)
				}
				fmt.Printf("  - %s  %s (%s)\n", u.ID, u.Email, verified)
				if name := deref(u.Name); name != "" {
					fmt.Printf("    Name: %s\n", name)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of users to list")

	return cmd
}

func newUsersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user and their linked provider accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user ID: %w", err)
			}

			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			ctx := cmd.Context()
			user, err := database.NewUserRepository(db).GetByID(ctx, userID)
			if err != nil {
				return err
			}
			accounts, err := database.NewAccountRepository(db).ListByUserID(ctx, userID)
			if err != nil {
				return err
			}

			fmt.Printf("User: %s\n", user.ID)
			fmt.Printf("  Email: %s\n", user.Email)
			fmt.Printf("  Name: %s\n", deref(user.Name))
			fmt.Printf("  Created: %s\n", user.CreatedAt.Format(time.RFC3339))

			if len(accounts) == 0 {
				fmt.Println("  No linked accounts")
				return nil
			}
			fmt.Println("  Accounts:")
			for _, a := range accounts {
				fmt.Printf("    - %s:%s (%s, scope %q)\n", a.Provider, a.ProviderAccountID, a.Type, deref(a.Scope))
			}
			return nil
		},
	}
}
