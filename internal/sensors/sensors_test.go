package sensors_test

import (
	"context"
	"testing"

	"codeberg.org/mutker/sysmond/internal/sensors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeProcessName(t *testing.T) {
	cases := map[string]string{
		"chrome.exe":          "chrome",
		"chrome-sandbox":      "chrome",
		"systemd_journal":     "systemd",
		"go":                  "go",
		"verylongprocessname": "verylon",
		" spaced ":            "spaced",
	}

	for in, want := range cases {
		assert.Equal(t, want, sensors.NormalizeProcessName(in), "input %q", in)
	}
}

func TestBytesToGigabytes(t *testing.T) {
	assert.InDelta(t, 1.0, sensors.BytesToGigabytes(uint64(1<<30)), 0.0001)
	assert.InDelta(t, 3.5, sensors.BytesToGigabytes(3.5*(1<<30)), 0.0001)
	assert.InDelta(t, 0.0, sensors.BytesToGigabytes(uint64(0)), 0.0001)
}

func TestProducersReturnSaneValues(t *testing.T) {
	ctx := context.Background()

	s, err := sensors.New(ctx)
	require.NoError(t, err)

	cpuPct, err := s.CPUPercent(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cpuPct, 0.0)
	assert.LessOrEqual(t, cpuPct, 100.0)

	memPct, err := s.VirtualMemoryPercent(ctx)
	require.NoError(t, err)
	assert.Greater(t, memPct, 0.0)
	assert.LessOrEqual(t, memPct, 100.0)

	swapPct, err := s.SwapPercent(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, swapPct, 0.0)

	// Works on machines with or without a battery: absence yields 0.
	batteryPct, err := s.BatteryPercent(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, batteryPct, 0.0)
	assert.LessOrEqual(t, batteryPct, 100.0)
}

func TestMemoryBreakdown(t *testing.T) {
	ctx := context.Background()

	s, err := sensors.New(ctx)
	require.NoError(t, err)

	breakdown, err := s.MemoryBreakdown(ctx)
	require.NoError(t, err)

	for _, key := range []string{"total", "available", "used", "free"} {
		assert.Contains(t, breakdown, key)
	}
	assert.Greater(t, breakdown["total"], 0.0)

	used, total, err := s.MemoryUsedTotal(ctx)
	require.NoError(t, err)
	assert.Greater(t, total, 0.0)
	assert.GreaterOrEqual(t, total, used)
}

func TestCPUStats(t *testing.T) {
	ctx := context.Background()

	s, err := sensors.New(ctx)
	require.NoError(t, err)

	stats, err := s.CPUStats(ctx)
	require.NoError(t, err)

	for _, key := range []string{"logical_cores", "physical_cores", "user", "system", "idle", "iowait"} {
		assert.Contains(t, stats, key)
	}
	assert.GreaterOrEqual(t, stats["logical_cores"], 1.0)
	assert.GreaterOrEqual(t, stats["logical_cores"], stats["physical_cores"])
	assert.GreaterOrEqual(t, stats["idle"], 0.0)
}

func TestSwapBreakdown(t *testing.T) {
	ctx := context.Background()

	s, err := sensors.New(ctx)
	require.NoError(t, err)

	breakdown, err := s.SwapBreakdown(ctx)
	require.NoError(t, err)

	for _, key := range []string{"total", "used", "free"} {
		assert.Contains(t, breakdown, key)
	}
	// Machines without swap report zero totals; composition still holds.
	assert.GreaterOrEqual(t, breakdown["total"], breakdown["used"])
}

func TestTopProcessMemory(t *testing.T) {
	ctx := context.Background()

	s, err := sensors.New(ctx)
	require.NoError(t, err)

	top, err := s.TopProcessMemory(ctx, sensors.TopProcessCount)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(top), sensors.TopProcessCount)

	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Gigabytes, top[i].Gigabytes,
			"entries must be in descending order")
	}
}
