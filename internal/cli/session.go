package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session management commands",
	}

	cmd.AddCommand(newSessionStartCmd())
	cmd.AddCommand(newSessionMeCmd())
	cmd.AddCommand(newSessionNameCmd())
	cmd.AddCommand(newSessionAccentCmd())
	cmd.AddCommand(newSessionEndCmd())

	return cmd
}

func newSessionStartCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new session",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{}
			if name != "" {
				req["display_name"] = name
			}

			var result Session
			if err := client.Post("/api/v1/session", req, &result); err != nil {
				return err
			}

			if err := cfg.SaveSession(result.ID); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to a generated guest name)")

	return cmd
}

func newSessionMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session
			if err := client.Get("/api/v1/session", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newSessionNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "name <display-name>",
		Short: "Change the session's display name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"display_name": args[0]}

			var result Session
			if err := client.Patch("/api/v1/session/name", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newSessionAccentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "accent <accent>",
		Short: "Set the durable accent preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"accent": args[0]}
			if err := client.Patch("/api/v1/session/accent", req, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Accent updated")
			return nil
		},
	}
}

func newSessionEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/session"); err != nil {
				return err
			}

			if err := cfg.ClearSession(); err != nil {
				return fmt.Errorf("failed to clear session file: %w", err)
			}

			NewOutput(cfg.Output).PrintMessage("Session ended")
			return nil
		},
	}
}
