package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "watch <code>",
		Short: "Stream round events from a room",
		Long: `Connect to the room's event stream and print updates in real time.

Each update carries the room status, whether you are waiting for the
opponent, and the resolution when a round completes.

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents(args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// roundEvent mirrors the event stream payload
type roundEvent struct {
	Status             string `json:"status"`
	OpponentName       string `json:"opponent_name"`
	WaitingForOpponent bool   `json:"waiting_for_opponent"`
	Epoch              int64  `json:"epoch"`
	Resolution         *struct {
		MyMove    string `json:"my_move"`
		TheirMove string `json:"their_move"`
		Result    string `json:"result"`
	} `json:"resolution"`
	Score Score `json:"score"`
}

func streamEvents(code string, jsonOutput bool) error {
	url := fmt.Sprintf("%s/api/v1/rooms/%s/events?session=%s",
		strings.TrimSuffix(cfg.ServerURL, "/"), code, cfg.SessionID)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	req = req.WithContext(ctx)

	// No timeout; the stream stays open until interrupted
	httpClient := &http.Client{Timeout: 0}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if !jsonOutput {
		fmt.Printf("Watching room %s\n", code)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		if jsonOutput {
			fmt.Println(data)
			continue
		}

		var event roundEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			continue
		}
		printRoundEvent(event)
	}

	if ctx.Err() != nil {
		return nil // Interrupted by the user
	}
	return scanner.Err()
}

func printRoundEvent(event roundEvent) {
	ts := time.Now().Format("15:04:05")

	switch {
	case event.Resolution != nil:
		fmt.Printf("[%s] round %d: %s vs %s, you %s (w%d l%d t%d)\n",
			ts, event.Epoch+1,
			event.Resolution.MyMove, event.Resolution.TheirMove, event.Resolution.Result,
			event.Score.Wins, event.Score.Losses, event.Score.Ties)
	case event.WaitingForOpponent:
		fmt.Printf("[%s] waiting for opponent\n", ts)
	case event.OpponentName == "":
		fmt.Printf("[%s] room %s, no opponent yet\n", ts, event.Status)
	default:
		fmt.Printf("[%s] room %s, opponent %s\n", ts, event.Status, event.OpponentName)
	}
}
