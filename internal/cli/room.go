package cli

import (
	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room management commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomStatusCmd())
	cmd.AddCommand(newRoomResumeCmd())
	cmd.AddCommand(newRoomReadyCmd())
	cmd.AddCommand(newRoomLeaveCmd())

	return cmd
}

func newRoomCreateCmd() *cobra.Command {
	var name string
	var forceNew bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a room and get its shareable code",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}
			if name != "" {
				req["name"] = name
			}
			if forceNew {
				req["force_new"] = true
			}

			var result CreateRoomResult
			if err := client.Post("/api/v1/rooms", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Host name (defaults to the session's display name)")
	cmd.Flags().BoolVar(&forceNew, "new", false, "Force a new code instead of reusing the current one")

	return cmd
}

func newRoomJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join a room by its 4-digit code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}
			if name != "" {
				req["name"] = name
			}

			var result Room
			if err := client.Post("/api/v1/rooms/"+args[0]+"/join", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Guest name (defaults to the session's display name)")

	return cmd
}

func newRoomStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <code>",
		Short: "Show a room's current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room
			if err := client.Get("/api/v1/rooms/"+args[0], &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newRoomResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Re-enter the room bound to this session",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Room
			if err := client.Post("/api/v1/rooms/resume", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newRoomReadyCmd() *cobra.Command {
	var notReady bool

	cmd := &cobra.Command{
		Use:   "ready <code>",
		Short: "Flag readiness in the current room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"ready": !notReady}
			if err := client.Post("/api/v1/rooms/"+args[0]+"/ready", req, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Readiness updated")
			return nil
		},
	}

	cmd.Flags().BoolVar(&notReady, "not", false, "Mark as not ready")

	return cmd
}

func newRoomLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <code>",
		Short: "Leave the current room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/rooms/"+args[0]+"/leave", nil, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Left room")
			return nil
		},
	}
}
