package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kolam-ikan/kolam/internal/services"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage author profiles of user entries",
	}
	cmd.AddCommand(newProfileListCmd())
	cmd.AddCommand(newProfileCreateCmd())
	cmd.AddCommand(newProfileDefaultCmd())
	cmd.AddCommand(newProfileDeleteCmd())
	cmd.AddCommand(newProfileAssignCmd())
	cmd.AddCommand(newProfileReassignCmd())
	return cmd
}

func newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			profiles, err := app.Profiles.List(ctx)
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No profiles")
				return nil
			}
			renderProfiles(cmd, profiles)
			return nil
		},
	}
}

func newProfileCreateCmd() *cobra.Command {
	var (
		role      string
		color     string
		isDefault bool
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			profile, err := app.Profiles.Create(ctx, services.CreateProfileInput{
				Name:      args[0],
				Role:      optionalFlag(cmd, "role", role),
				Color:     optionalFlag(cmd, "color", color),
				IsDefault: isDefault,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), profile.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Role description, e.g. Researcher")
	cmd.Flags().StringVar(&color, "color", "", "Display color")
	cmd.Flags().BoolVar(&isDefault, "default", false, "Use for new user entries")
	return cmd
}

func newProfileDefaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default <profile-id>",
		Short: "Make a profile the default for new user entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := app.Profiles.SetDefault(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Default profile updated")
			return nil
		},
	}
}

func newProfileDeleteCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <profile-id>",
		Short: "Delete a profile; its entries keep no profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			profile, err := app.Profiles.Get(ctx, args[0])
			if err != nil {
				return err
			}
			count, err := app.Profiles.EntryCount(ctx, profile.ID)
			if err != nil {
				return err
			}

			if !force {
				ok, err := confirm(cmd, cmd.InOrStdin(), fmt.Sprintf("Delete profile '%s' used by %d entries?", profile.Name, count))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
					return nil
				}
			}

			if err := app.Profiles.Delete(ctx, profile.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile '%s'\n", profile.Name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	return cmd
}

func newProfileAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <entry-id> [profile-id]",
		Short: "Set or clear the profile of a user entry",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var profileID *string
			if len(args) == 2 {
				profileID = &args[1]
			}

			ctx := context.Background()
			app, closeDB, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			entry, err := app.Profiles.Assign(ctx, args[0], profileID)
			if err != nil {
				return err
			}
			if entry.Profile == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Entry #%d has no profile\n", entry.SequenceID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Entry #%d written by %s\n", entry.SequenceID, entry.Profile.Name)
			return nil
		},
	}
}

func newProfileReassignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reassign <stream-id> [profile-id]",
		Short: "Set or clear the profile of every staged user entry",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var profileID *string
			if len(args) == 2 {
				profileID = &args[1]
			}

			ctx := context.Background()
			_, ws, closeDB, err := openWorkspace(ctx, args[0])
			if err != nil {
				return err
			}
			defer closeDB()

			result, err := ws.ReassignStagedProfile(ctx, profileID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d entries\n", result.Updated)
			if result.IgnoredAICount > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Ignored %d AI entries\n", result.IgnoredAICount)
			}
			return nil
		},
	}
}
