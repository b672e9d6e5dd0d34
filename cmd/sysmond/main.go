package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/sysmond/internal/config"
	"codeberg.org/mutker/sysmond/internal/dispatch"
	"codeberg.org/mutker/sysmond/internal/feed"
	"codeberg.org/mutker/sysmond/internal/history"
	"codeberg.org/mutker/sysmond/internal/logger"
	"codeberg.org/mutker/sysmond/internal/logroute"
	"codeberg.org/mutker/sysmond/internal/notify"
	"codeberg.org/mutker/sysmond/internal/pid"
	"codeberg.org/mutker/sysmond/internal/sensors"
	"codeberg.org/mutker/sysmond/internal/series"
	"codeberg.org/mutker/sysmond/internal/watch"
)

const (
	streamCPU  = "cpu.log"
	streamMisc = "misc.log"
	streamRAM  = "ram.log"
	streamSwap = "swap_mem.log"

	// The process summary trails the performance summary so the two
	// notifications never land in the same instant.
	summaryStagger = 30 * time.Second

	reportTimeout = 30 * time.Second
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to acquire pid file")
	}
	defer pid.Remove()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := run(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
		pid.Remove()
		os.Exit(1)
	}
	logger.Info().Msg("Exiting...")
}

func run(ctx context.Context) error {
	routes, err := logroute.NewRegistry(cfg.LogDir, streamCPU, streamMisc, streamRAM, streamSwap)
	if err != nil {
		return err
	}
	defer routes.Close()

	snsr, err := sensors.New(ctx)
	if err != nil {
		return err
	}

	histCfg := history.DefaultConfig()
	histCfg.Enabled = cfg.History
	histCfg.DBPath = cfg.HistoryDB
	audit, err := history.NewService(histCfg)
	if err != nil {
		return err
	}
	defer audit.Close()

	scheduler := watch.NewScheduler()

	dispatcher := dispatch.New(scheduler, pickDelivery(), routes, audit)
	dispatcher.CheckInterval = time.Duration(cfg.CheckInterval) * time.Second
	dispatcher.DebounceWindow = time.Duration(cfg.DebounceWindow) * time.Second
	dispatcher.ProbeInterval = time.Duration(cfg.ProbeInterval) * time.Millisecond
	dispatcher.RearmDelay = time.Duration(cfg.RearmDelay) * time.Second

	buffers := newChartBuffers(cfg.Capacity)
	f := feed.New(time.Duration(cfg.TickInterval)*time.Millisecond, func() {
		logSamples(buffers)
	})
	f.Attach(buffers.cpu, snsr.CPUPercent)
	f.Attach(buffers.memory, snsr.VirtualMemoryPercent)
	f.Attach(buffers.swap, snsr.SwapPercent)
	f.Attach(buffers.battery, snsr.BatteryPercent)

	if cfg.Monitor {
		logger.Info().Msg("Monitor mode activated. Notifications disarmed.")
	} else {
		if err := armAlerts(dispatcher, snsr, buffers); err != nil {
			return err
		}
		if err := armSummaries(dispatcher, snsr); err != nil {
			return err
		}
	}

	runErr := f.Run(ctx)

	// A drain timeout means a watch action is wedged; force the exit rather
	// than hang shutdown on it.
	if err := scheduler.Shutdown(watch.DefaultShutdownTimeout); err != nil {
		return err
	}

	return runErr
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

type chartBuffers struct {
	cpu     *series.Buffer
	memory  *series.Buffer
	swap    *series.Buffer
	battery *series.Buffer
}

func newChartBuffers(capacity int) *chartBuffers {
	percent := series.Bounds{Min: 0, Max: 100}

	return &chartBuffers{
		cpu:     series.New(capacity, percent),
		memory:  series.New(capacity, percent),
		swap:    series.New(capacity, percent),
		battery: series.New(capacity, percent),
	}
}

func latest(buf *series.Buffer) float64 {
	samples := buf.Snapshot()
	if len(samples) == 0 {
		return 0
	}

	return samples[len(samples)-1].Value
}

func pickDelivery() notify.Delivery {
	desktop := notify.NewDesktop()
	if desktop.Available() {
		return desktop
	}

	logger.Info().Msg("No desktop session; notifications go to the process log")

	return notify.NewLogDelivery()
}

func armAlerts(d *dispatch.Dispatcher, snsr *sensors.Sensors, buffers *chartBuffers) error {
	alerts := []dispatch.AlertSpec{
		{
			Name:      "cpu usage",
			Condition: func() bool { return latest(buffers.cpu) > cfg.CPUThreshold },
			Notification: func() notify.Notification {
				return notify.Notification{
					Title:   "High CPU Usage",
					Message: fmt.Sprintf("CPU Usage: %.0f%%", latest(buffers.cpu)),
					Urgency: notify.UrgencyCritical,
				}
			},
			LogTarget: streamCPU,
		},
		{
			Name:      "memory usage",
			Condition: func() bool { return latest(buffers.memory) > cfg.MemoryThreshold },
			Notification: func() notify.Notification {
				return notify.Notification{
					Title:   "High Memory Usage",
					Message: fmt.Sprintf("RAM Usage: %.0f%%", latest(buffers.memory)),
					Urgency: notify.UrgencyCritical,
				}
			},
			LogTarget: streamRAM,
		},
		{
			Name:      "swap usage",
			Condition: func() bool { return latest(buffers.swap) > cfg.SwapThreshold },
			Notification: func() notify.Notification {
				return notify.Notification{
					Title:   "High Swap Usage",
					Message: fmt.Sprintf("Swap Usage: %.0f%%", latest(buffers.swap)),
					Urgency: notify.UrgencyCritical,
				}
			},
			LogTarget: streamSwap,
		},
	}

	if snsr.HasBattery() {
		alerts = append(alerts, dispatch.AlertSpec{
			Name:      "battery low",
			Condition: func() bool { return latest(buffers.battery) < cfg.BatteryMinimum },
			Notification: func() notify.Notification {
				return notify.Notification{
					Title:   "Low Battery",
					Message: fmt.Sprintf("Battery: %.0f%%", latest(buffers.battery)),
					Urgency: notify.UrgencyNormal,
				}
			},
			LogTarget: streamMisc,
		})
	}

	for _, spec := range alerts {
		if _, err := d.NotifyWhen(spec); err != nil {
			return err
		}
		logger.Debug().Str("alert", spec.Name).Msg("Alert armed")
	}

	return nil
}

func armSummaries(d *dispatch.Dispatcher, snsr *sensors.Sensors) error {
	period := time.Duration(cfg.SummaryPeriod) * time.Second

	performance := []dispatch.DumpInfo{
		{Label: "CPU", Supplier: scalarSupplier(snsr.CPUPercent), Units: []string{"%"}, LogTarget: streamCPU},
		{
			Label: "RAM",
			Supplier: func(ctx context.Context) ([]float64, error) {
				used, total, err := snsr.MemoryUsedTotal(ctx)
				if err != nil {
					return nil, err
				}
				return []float64{used, total}, nil
			},
			Units:     []string{"GB", "GB"},
			LogTarget: streamRAM,
		},
		{Label: "Swap", Supplier: scalarSupplier(snsr.SwapPercent), Units: []string{"%"}, LogTarget: streamSwap},
		{Label: "Battery", Supplier: scalarSupplier(snsr.BatteryPercent), Units: []string{"%"}, LogTarget: streamMisc},
	}
	if _, err := d.PeriodicallySend("performance summary", performance, period); err != nil {
		return err
	}

	// The process report names its entries at dispatch time, so it goes
	// through the conditional path with an elapsed-time condition instead of
	// a fixed batch.
	start := time.Now()
	delay := period + summaryStagger
	_, err := d.NotifyWhen(dispatch.AlertSpec{
		Name:      "process summary",
		Condition: func() bool { return time.Since(start) > delay },
		Notification: func() notify.Notification {
			return notify.Notification{
				Title:   "Performance Info",
				Message: processReport(snsr),
				Urgency: notify.UrgencyNormal,
			}
		},
		DebounceWindow: time.Millisecond,
		RearmDelay:     delay,
	})

	return err
}

func scalarSupplier(producer sensors.Producer) dispatch.Supplier {
	return func(ctx context.Context) ([]float64, error) {
		v, err := producer(ctx)
		if err != nil {
			return nil, err
		}

		return []float64{v}, nil
	}
}

func processReport(snsr *sensors.Sensors) string {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	entries, err := snsr.TopProcessMemory(ctx, sensors.TopProcessCount)
	if err != nil {
		logger.Warn().Err(err).Msg("Process memory aggregation failed")
		return "Processes: N/A\n"
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s: %.1fGB\n", e.Name, e.Gigabytes)
	}

	return b.String()
}

func logSamples(b *chartBuffers) {
	if cfg.Debug {
		logger.Debug().
			Float64("cpu", latest(b.cpu)).
			Float64("memory", latest(b.memory)).
			Float64("swap", latest(b.swap)).
			Float64("battery", latest(b.battery)).
			Bool("monitor", cfg.Monitor).
			Msg("")
	} else if cfg.Verbose || cfg.Monitor {
		logger.Info().
			Float64("cpu", latest(b.cpu)).
			Float64("memory", latest(b.memory)).
			Float64("swap", latest(b.swap)).
			Msg("")
	}
}
