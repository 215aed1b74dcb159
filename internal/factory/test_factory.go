package factory

import (
	"time"

	"github.com/playrps/rpsroom/internal/dependencies/mocks"
	"github.com/playrps/rpsroom/internal/session"
	"github.com/playrps/rpsroom/internal/store/memory"
	"github.com/playrps/rpsroom/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(
		memory.New(),
		session.NewMemoryStore(),
		mockClock,
		mockRandom,
		testutil.NopLogger(),
	)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
