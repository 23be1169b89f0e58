package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(ctx context.Context) error {
	return f.err
}

func TestRegisterPingerReportsUp(t *testing.T) {
	checker := NewChecker()
	checker.RegisterPinger("postgres", fakePinger{}, false)

	report := checker.Run(context.Background())
	assert.Equal(t, StatusUp, report.Status)
	require.Contains(t, report.Components, "postgres")
	assert.Equal(t, StatusUp, report.Components["postgres"].Status)
}

func TestRegisterPingerFailureIsDown(t *testing.T) {
	checker := NewChecker()
	checker.RegisterPinger("postgres", fakePinger{err: errors.New("connection refused")}, false)

	report := checker.Run(context.Background())
	assert.Equal(t, StatusDown, report.Status)
	assert.Equal(t, "connection refused", report.Components["postgres"].Message)
}

func TestRegisterPingerSoftFailureDegrades(t *testing.T) {
	checker := NewChecker()
	checker.RegisterPinger("postgres", fakePinger{}, false)
	checker.RegisterPinger("redis", fakePinger{err: errors.New("timeout")}, true)

	report := checker.Run(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, StatusUp, report.Components["postgres"].Status)
	assert.Equal(t, StatusDegraded, report.Components["redis"].Status)
}
