package dispatch

import (
	"context"
	"testing"

	"codeberg.org/mutker/sysmond/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scalar(v float64) Supplier {
	return func(context.Context) ([]float64, error) { return []float64{v}, nil }
}

func multi(vs ...float64) Supplier {
	return func(context.Context) ([]float64, error) { return vs, nil }
}

func TestComposeSummary(t *testing.T) {
	batch := []DumpInfo{
		{Label: "CPU", Supplier: scalar(42), Units: []string{"%"}},
		{Label: "RAM", Supplier: multi(3.2, 1.1), Units: []string{"GB", "GB"}},
	}

	message, lines := composeSummary(context.Background(), batch)

	assert.Equal(t, "CPU: 42%\nRAM: 3.2GB - 1.1GB\n", message)
	assert.Empty(t, lines, "no entry declared a log target")
}

func TestComposeTrailingValuesWithoutUnits(t *testing.T) {
	batch := []DumpInfo{
		{Label: "Load", Supplier: multi(1.5, 2, 2.5), Units: []string{"a", "b"}},
	}

	message, _ := composeSummary(context.Background(), batch)

	assert.Equal(t, "Load: 1.5a - 2b - 2.5\n", message)
}

func TestComposeNoUnits(t *testing.T) {
	batch := []DumpInfo{
		{Label: "Procs", Supplier: scalar(317)},
	}

	message, _ := composeSummary(context.Background(), batch)

	assert.Equal(t, "Procs: 317\n", message)
}

func TestComposeCollectsAuditLines(t *testing.T) {
	batch := []DumpInfo{
		{Label: "CPU", Supplier: scalar(42), Units: []string{"%"}, LogTarget: "cpu.log"},
		{Label: "RAM", Supplier: scalar(61), Units: []string{"%"}},
		{Label: "Swap", Supplier: scalar(12), Units: []string{"%"}, LogTarget: "swap_mem.log"},
	}

	_, lines := composeSummary(context.Background(), batch)

	require.Len(t, lines, 2)
	assert.Equal(t, "cpu.log", lines[0].stream)
	assert.Equal(t, "CPU: 42%", lines[0].text)
	assert.Equal(t, "swap_mem.log", lines[1].stream)
	assert.Equal(t, "Swap: 12%", lines[1].text)
}

func TestComposeSupplierFailureDegradesToNA(t *testing.T) {
	batch := []DumpInfo{
		{Label: "CPU", Supplier: scalar(42), Units: []string{"%"}},
		{
			Label: "Battery",
			Supplier: func(context.Context) ([]float64, error) {
				return nil, errors.New().New(errors.ErrSensorUnavailable)
			},
		},
	}

	message, _ := composeSummary(context.Background(), batch)

	assert.Equal(t, "CPU: 42%\nBattery: N/A\n", message)
}
