package commands

import (
	"fmt"

	"github.com/benvon/quizmify/internal/database"
	"github.com/benvon/quizmify/internal/models"
	"github.com/benvon/quizmify/internal/services/oidc"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewAccountsCmd creates the accounts command
func NewAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage provider account links",
	}

	cmd.AddCommand(newAccountsLinkCmd())

	return cmd
}

// newAccountsLinkCmd links a provider identity to an existing user, for users refused
// at sign-in because their email is already registered
func newAccountsLinkCmd() *cobra.Command {
	var (
		userID            string
		provider          string
		providerAccountID string
	)

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link a provider account to an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user-id: %w", err)
			}
			if providerAccountID == "" {
				return fmt.Errorf("--provider-account-id is required")
			}

			db, closeDB, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			ctx := cmd.Context()
			user, err := database.NewUserRepository(db).GetByID(ctx, id)
			if err != nil {
				return err
			}

			accounts := database.NewAccountRepository(db)
			owner, err := accounts.GetUserByAccount(ctx, provider, providerAccountID)
			if err != nil {
				return err
			}
			if owner != nil {
				return fmt.Errorf("%s account %s is already linked to user %s", provider, providerAccountID, owner.ID)
			}

			account := &models.Account{
				UserID:            user.ID,
				Type:              models.AccountTypeOAuth,
				Provider:          provider,
				ProviderAccountID: providerAccountID,
			}
			if err := accounts.Link(ctx, account); err != nil {
				return err
			}

			fmt.Printf("✓ Linked %s account %s to %s\n", provider, providerAccountID, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "ID of the existing user (required)")
	cmd.Flags().StringVar(&provider, "provider", oidc.ProviderGoogle, "Provider name")
	cmd.Flags().StringVar(&providerAccountID, "provider-account-id", "", "Subject of the identity at the provider (required)")

	return cmd
}
