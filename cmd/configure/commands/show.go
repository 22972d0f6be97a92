package commands

import (
	"fmt"
	"os"

	"github.com/benvon/quizmify/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long:  "Load and validate configuration from the environment and print it as YAML with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer func() {
				_ = enc.Close()
			}()

			if err := enc.Encode(cfg.Redacted()); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			return nil
		},
	}
}
