package sensors

import (
	"context"
	"sort"

	"codeberg.org/mutker/sysmond/internal/errors"
	"codeberg.org/mutker/sysmond/internal/logger"
	"github.com/distatus/battery"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

const (
	bytesPerGigabyte = 1024 * 1024 * 1024

	// TopProcessCount is how many aggregated process entries the process
	// memory breakdown reports.
	TopProcessCount = 5
)

// Producer is the metric producer capability: invoked once per feed tick.
// Implementations may block; they must honor ctx and return within bounded
// time, or the tick barrier stalls.
type Producer func(ctx context.Context) (float64, error)

// Sensors exposes host metric producers. All methods are safe for
// concurrent use.
type Sensors struct {
	hasBattery bool
}

// New probes the host and primes the CPU sampler. The first gopsutil CPU
// reading compares against process start, so one throwaway call keeps the
// first tick meaningful.
func New(ctx context.Context) (*Sensors, error) {
	errFactory := errors.New()

	if _, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		return nil, errFactory.Wrap(errors.ErrInitFailed, err)
	}

	s := &Sensors{}

	batteries, err := battery.GetAll()
	s.hasBattery = err == nil && len(batteries) > 0
	if !s.hasBattery {
		// Not a fault: desktops report 0 for the battery feed.
		logger.Debug().Msg("No battery detected; battery feed reports 0")
	}

	return s, nil
}

// CPUPercent returns total CPU utilization since the previous call.
func (s *Sensors) CPUPercent(ctx context.Context) (float64, error) {
	errFactory := errors.New()

	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, errFactory.Wrap(errors.ErrProducerFailure, err)
	}
	if len(percents) == 0 {
		return 0, errFactory.WithMessage(errors.ErrProducerFailure, "no CPU utilization reported")
	}

	return percents[0], nil
}

// VirtualMemoryPercent returns virtual memory utilization.
func (s *Sensors) VirtualMemoryPercent(ctx context.Context) (float64, error) {
	errFactory := errors.New()

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, errFactory.Wrap(errors.ErrProducerFailure, err)
	}

	return vm.UsedPercent, nil
}

// SwapPercent returns swap utilization.
func (s *Sensors) SwapPercent(ctx context.Context) (float64, error) {
	errFactory := errors.New()

	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return 0, errFactory.Wrap(errors.ErrProducerFailure, err)
	}

	return swap.UsedPercent, nil
}

// BatteryPercent returns the battery charge percentage. A machine without
// a battery is a valid system state, not a fault: the producer recovers
// locally and reports 0.
func (s *Sensors) BatteryPercent(_ context.Context) (float64, error) {
	batteries, err := battery.GetAll()
	if err != nil || len(batteries) == 0 {
		return 0, nil
	}

	b := batteries[0]
	if b.Full == 0 {
		return 0, nil
	}

	return b.Current / b.Full * 100, nil
}

// CPUStats returns the CPU composition: core counts and cumulative seconds
// spent in each processor state since boot.
func (s *Sensors) CPUStats(ctx context.Context) (map[string]float64, error) {
	errFactory := errors.New()

	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrProducerFailure, err)
	}
	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrProducerFailure, err)
	}
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrProducerFailure, err)
	}
	if len(times) == 0 {
		return nil, errFactory.WithMessage(errors.ErrProducerFailure, "no CPU times reported")
	}

	t := times[0]

	return map[string]float64{
		"logical_cores":  float64(logical),
		"physical_cores": float64(physical),
		"user":           t.User,
		"system":         t.System,
		"idle":           t.Idle,
		"iowait":         t.Iowait,
	}, nil
}

// MemoryUsedTotal returns used and total virtual memory in gigabytes, for
// multi-valued summary entries.
func (s *Sensors) MemoryUsedTotal(ctx context.Context) (used, total float64, err error) {
	errFactory := errors.New()

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, errFactory.Wrap(errors.ErrProducerFailure, err)
	}

	return BytesToGigabytes(vm.Used), BytesToGigabytes(vm.Total), nil
}

// MemoryBreakdown returns the virtual memory composition in gigabytes.
func (s *Sensors) MemoryBreakdown(ctx context.Context) (map[string]float64, error) {
	errFactory := errors.New()

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrProducerFailure, err)
	}

	return map[string]float64{
		"total":     BytesToGigabytes(vm.Total),
		"available": BytesToGigabytes(vm.Available),
		"used":      BytesToGigabytes(vm.Used),
		"free":      BytesToGigabytes(vm.Free),
	}, nil
}

// SwapBreakdown returns the swap composition in gigabytes.
func (s *Sensors) SwapBreakdown(ctx context.Context) (map[string]float64, error) {
	errFactory := errors.New()

	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrProducerFailure, err)
	}

	return map[string]float64{
		"total": BytesToGigabytes(swap.Total),
		"used":  BytesToGigabytes(swap.Used),
		"free":  BytesToGigabytes(swap.Free),
	}, nil
}

// ProcessMemory is one aggregated per-name process memory total.
type ProcessMemory struct {
	Name      string
	Gigabytes float64
}

// TopProcessMemory aggregates VMS memory by normalized process name and
// returns the n heaviest entries in descending order. Processes that vanish
// or deny access mid-iteration are skipped.
func (s *Sensors) TopProcessMemory(ctx context.Context, n int) ([]ProcessMemory, error) {
	errFactory := errors.New()

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrProducerFailure, err)
	}

	byName := make(map[string]uint64)
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		info, err := p.MemoryInfoWithContext(ctx)
		if err != nil || info == nil {
			continue
		}
		byName[NormalizeProcessName(name)] += info.VMS
	}

	entries := make([]ProcessMemory, 0, len(byName))
	for name, vms := range byName {
		entries = append(entries, ProcessMemory{Name: name, Gigabytes: BytesToGigabytes(vms)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Gigabytes != entries[j].Gigabytes {
			return entries[i].Gigabytes > entries[j].Gigabytes
		}
		return entries[i].Name < entries[j].Name
	})

	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}

	return entries, nil
}

// HasBattery reports whether a battery was present at startup.
func (s *Sensors) HasBattery() bool {
	return s.hasBattery
}

// BytesToGigabytes converts a byte count to gigabytes.
func BytesToGigabytes[T uint64 | int64 | float64](v T) float64 {
	return float64(v) / bytesPerGigabyte
}
