package cli

import (
	"github.com/spf13/cobra"
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Round commands",
	}

	cmd.AddCommand(newPlayMoveCmd())
	cmd.AddCommand(newPlayResetCmd())

	return cmd
}

func newPlayMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "move <code> <rock|paper|scissor>",
		Short:     "Submit a move for the current round",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"rock", "paper", "scissor"},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"move": args[1]}

			var result MoveResult
			if err := client.Post("/api/v1/rooms/"+args[0]+"/move", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newPlayResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <code>",
		Short: "Clear both moves and start the next round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/rooms/"+args[0]+"/reset", nil, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Round reset")
			return nil
		},
	}
}

func newScoreCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Show or reset the durable score",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reset {
				if err := client.Delete("/api/v1/session/score"); err != nil {
					return err
				}
				NewOutput(cfg.Output).PrintMessage("Score reset")
				return nil
			}

			var result Score
			if err := client.Get("/api/v1/session/score", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Reset the score to zero")

	return cmd
}
