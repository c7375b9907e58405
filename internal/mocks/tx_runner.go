package mocks

import (
	"context"

	"github.com/phrazzld/taskboard-api/internal/store"
)

// MockTxRunner implements store.TxRunner without a database. Fn is called
// with a nil *sql.Tx, so it pairs with store mocks whose WithTx returns the
// mock itself.
type MockTxRunner struct {
	// Err, when set, is returned instead of running the function
	Err error

	// Calls counts RunInTx invocations
	Calls int
}

var _ store.TxRunner = (*MockTxRunner)(nil)

// RunInTx implements store.TxRunner.
func (m *MockTxRunner) RunInTx(ctx context.Context, fn store.TxFn) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx, nil)
}
