// util/sync.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/mmp/flightcore/log"

	"github.com/shirou/gopsutil/v3/mem"
)

// LoggingMutex is a sync.Mutex that logs its acquisition and release at
// debug level and reports when it is waited on or held for an
// excessively long time.
type LoggingMutex struct {
	sync.Mutex

	// infoMu guards acq and acqStack, which are read by waiters that
	// don't hold the main lock.
	infoMu   sync.Mutex
	acq      time.Time
	acqStack []log.StackFrame
}

func (l *LoggingMutex) Lock(lg *log.Logger) {
	tryTime := time.Now()

	if !l.Mutex.TryLock() {
		locked := make(chan struct{}, 1)
		go func() {
			l.Mutex.Lock()
			locked <- struct{}{}
		}()

		select {
		case <-locked:

		case <-time.After(10 * time.Second):
			lg.Error("unable to acquire mutex after 10 seconds", slog.Any("mutex", l))

			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			var used float64
			if vm, err := mem.VirtualMemory(); err == nil {
				used = vm.UsedPercent
			}
			lg.Errorf("mem used: %.0f%% alloc: %dMB sys mem: %dMB goroutines: %d", used,
				m.Alloc/(1024*1024), m.Sys/(1024*1024), runtime.NumGoroutine())

			<-locked
		}
	}

	l.infoMu.Lock()
	l.acq = time.Now()
	l.acqStack = log.Callstack(l.acqStack)
	acq := l.acq
	l.infoMu.Unlock()

	if w := acq.Sub(tryTime); w > time.Second {
		lg.Warn("long wait to acquire mutex", slog.Any("mutex", l), slog.Duration("wait", w))
	}
	lg.Debug("acquired mutex", slog.Any("mutex", l))
}

func (l *LoggingMutex) Unlock(lg *log.Logger) {
	l.infoMu.Lock()
	acq := l.acq
	l.infoMu.Unlock()
	if d := time.Since(acq); d > time.Second {
		lg.Warn("mutex held for over 1 second", slog.Any("mutex", l), slog.Duration("held", d))
	}

	l.infoMu.Lock()
	l.acq = time.Time{}
	l.acqStack = l.acqStack[:0]
	l.infoMu.Unlock()
	l.Mutex.Unlock()

	lg.Debug("released mutex")
}

// LogValue reports a snapshot of the current holder; it may be called by
// goroutines that don't hold the lock.
func (l *LoggingMutex) LogValue() slog.Value {
	l.infoMu.Lock()
	acq, stack := l.acq, slices.Clone(l.acqStack)
	l.infoMu.Unlock()

	return slog.GroupValue(
		slog.Time("acq", acq),
		slog.Duration("held", time.Since(acq)),
		slog.Any("acq_stack", stack))
}
