package e2e_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playrps/rpsroom/internal/api"
	"github.com/playrps/rpsroom/internal/config"
	"github.com/playrps/rpsroom/internal/factory"
)

// cliRunner manages CLI binary execution. Each runner carries its own
// session file, so two runners act as two independent clients.
type cliRunner struct {
	binaryPath  string
	serverURL   string
	sessionFile string
}

func newCLIRunner(t *testing.T, binaryPath, serverURL string) *cliRunner {
	t.Helper()

	return &cliRunner{
		binaryPath:  binaryPath,
		serverURL:   serverURL,
		sessionFile: filepath.Join(t.TempDir(), "session"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--session-file", r.sessionFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// watch starts a `watch` command that streams round events until the
// context is cancelled, and returns a func collecting its output.
func (r *cliRunner) watch(ctx context.Context, code string) func() string {
	fullArgs := []string{
		"--server", r.serverURL,
		"--session-file", r.sessionFile,
		"watch", code, "--json",
	}

	cmd := exec.CommandContext(ctx, r.binaryPath, fullArgs...)
	done := make(chan string, 1)
	go func() {
		output, _ := cmd.CombinedOutput()
		done <- string(output)
	}()
	return func() string { return <-done }
}

func buildCLI(t *testing.T) string {
	t.Helper()

	projectRoot := findProjectRoot(t)
	binaryPath := filepath.Join(projectRoot, "bin", "rpsroom-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/rpsroom")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return binaryPath
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	app, err := factory.New(factory.Config{
		Logger:  logger,
		Storage: config.StorageConfig{Type: config.StorageMemory},
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:       logger,
		Sessions:     app.Sessions,
		Coordinator:  app.Coordinator,
		Synchronizer: app.Synchronizer,
		Tracker:      app.Tracker,
		Metrics:      app.Metrics,
		BaseURL:      "http://" + addr,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing

type sessionResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	RoomCode    string `json:"room_code"`
	Role        string `json:"role"`
	Accent      string `json:"accent"`
}

type roomPlayerResponse struct {
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

type roomResponse struct {
	Code           string                        `json:"code"`
	Status         string                        `json:"status"`
	Players        map[string]roomPlayerResponse `json:"players"`
	RoundEpoch     int64                         `json:"round_epoch"`
	YourRole       string                        `json:"your_role"`
	OpponentName   string                        `json:"opponent_name"`
	YourMoveIn     bool                          `json:"your_move_in"`
	OpponentMoveIn bool                          `json:"opponent_move_in"`
}

type createRoomResponse struct {
	Room      roomResponse `json:"room"`
	ShareLink string       `json:"share_link"`
}

type moveResponse struct {
	Move    string `json:"move"`
	Waiting bool   `json:"waiting"`
}

type scoreResponse struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, buildCLI(t), ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_SessionCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, buildCLI(t), ts.addr)

	output, err := cli.run("session", "start", "--name", "Alice")
	require.NoError(t, err, "output: %s", output)

	var started sessionResponse
	require.NoError(t, json.Unmarshal([]byte(output), &started))
	assert.NotEmpty(t, started.ID)

	// The session id should be saved, so "me" works without flags
	output, err = cli.run("session", "me")
	require.NoError(t, err, "output: %s", output)

	var me sessionResponse
	require.NoError(t, json.Unmarshal([]byte(output), &me))
	assert.Equal(t, started.ID, me.ID)
	assert.Equal(t, "Alice", me.DisplayName)

	output, err = cli.run("session", "name", "Alicia")
	require.NoError(t, err, "output: %s", output)

	var renamed sessionResponse
	require.NoError(t, json.Unmarshal([]byte(output), &renamed))
	assert.Equal(t, "Alicia", renamed.DisplayName)
}

func TestCLI_FullMatch(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	binary := buildCLI(t)
	host := newCLIRunner(t, binary, ts.addr)
	guest := newCLIRunner(t, binary, ts.addr)

	// Both clients start sessions
	output, err := host.run("session", "start", "--name", "Alice")
	require.NoError(t, err, "output: %s", output)
	output, err = guest.run("session", "start", "--name", "Bob")
	require.NoError(t, err, "output: %s", output)

	// Host creates a room
	output, err = host.run("room", "create")
	require.NoError(t, err, "output: %s", output)

	var created createRoomResponse
	require.NoError(t, json.Unmarshal([]byte(output), &created))
	code := created.Room.Code
	require.Len(t, code, 4)
	assert.Equal(t, "waiting", created.Room.Status)
	assert.Equal(t, "slot1", created.Room.YourRole)
	assert.Contains(t, created.ShareLink, code)

	// Guest joins
	output, err = guest.run("room", "join", code)
	require.NoError(t, err, "output: %s", output)

	var joined roomResponse
	require.NoError(t, json.Unmarshal([]byte(output), &joined))
	assert.Equal(t, "ready", joined.Status)
	assert.Equal(t, "slot2", joined.YourRole)
	assert.Equal(t, "Alice", joined.OpponentName)

	// Both players watch the event stream; resolution and score recording
	// happen per stream, from each player's perspective
	watchCtx, cancelWatch := context.WithCancel(context.Background())
	hostEvents := host.watch(watchCtx, code)
	guestEvents := guest.watch(watchCtx, code)

	// Both play; Alice's rock beats Bob's scissor
	output, err = host.run("play", "move", code, "rock")
	require.NoError(t, err, "output: %s", output)

	var hostMove moveResponse
	require.NoError(t, json.Unmarshal([]byte(output), &hostMove))
	assert.Equal(t, "rock", hostMove.Move)

	output, err = guest.run("play", "move", code, "scissor")
	require.NoError(t, err, "output: %s", output)

	// Resolution lands in each player's durable score
	requireScore := func(cli *cliRunner, want scoreResponse) {
		var score scoreResponse
		require.Eventually(t, func() bool {
			out, err := cli.run("score")
			if err != nil {
				return false
			}
			if err := json.Unmarshal([]byte(out), &score); err != nil {
				return false
			}
			return score == want
		}, 5*time.Second, 100*time.Millisecond, "score did not settle, last: %+v", score)
	}
	requireScore(host, scoreResponse{Wins: 1})
	requireScore(guest, scoreResponse{Losses: 1})

	cancelWatch()
	assert.Contains(t, hostEvents(), `"result":"win"`)
	assert.Contains(t, guestEvents(), `"result":"lose"`)

	// Next round
	output, err = host.run("play", "reset", code)
	require.NoError(t, err, "output: %s", output)

	output, err = host.run("room", "status", code)
	require.NoError(t, err, "output: %s", output)

	var room roomResponse
	require.NoError(t, json.Unmarshal([]byte(output), &room))
	assert.Equal(t, int64(1), room.RoundEpoch)
	assert.False(t, room.YourMoveIn)
	assert.False(t, room.OpponentMoveIn)

	// Guest leaves, host's room goes back to waiting
	output, err = guest.run("room", "leave", code)
	require.NoError(t, err, "output: %s", output)

	output, err = host.run("room", "status", code)
	require.NoError(t, err, "output: %s", output)

	room = roomResponse{}
	require.NoError(t, json.Unmarshal([]byte(output), &room))
	assert.Equal(t, "waiting", room.Status)
	assert.NotContains(t, room.Players, "slot2")
}

func TestCLI_JoinUnknownRoom(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, buildCLI(t), ts.addr)

	output, err := cli.run("session", "start")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("room", "join", "0000")
	require.Error(t, err)
	assert.Contains(t, output, "ROOM_NOT_FOUND")
}

func TestCLI_RequiresSession(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, buildCLI(t), ts.addr)

	output, err := cli.run("room", "create")
	require.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")
}
