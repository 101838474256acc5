package stats

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	BYTE = 1 << (10 * iota)
	KILOBYTE
	MEGABYTE
	GIGABYTE
	TERABYTE
)

// MemoryStats is a subset of the go runtime memory statistics.
type MemoryStats struct {
	TotalAllocated uint64
	HeapAllocated  uint64
	Mallocs        uint64
	Frees          uint64
	Goroutines     int
}

// ReadMemoryStats returns the current memory usage of the go process.
func ReadMemoryStats() MemoryStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return MemoryStats{
		TotalAllocated: memStats.TotalAlloc,
		HeapAllocated:  memStats.HeapAlloc,
		Mallocs:        memStats.Mallocs,
		Frees:          memStats.Frees,
		Goroutines:     runtime.NumGoroutine(),
	}
}

func (s MemoryStats) String() string {
	return fmt.Sprintf(
		"Total allocated: %.3fMB, Heap allocated: %.3fMB, "+
			"Allocated objects count: %v, Freed objects count: %v, "+
			"Num of go routines: %v",
		toMegabytes(s.TotalAllocated), toMegabytes(s.HeapAllocated),
		s.Mallocs, s.Frees, s.Goroutines,
	)
}

// EnableMemoryStatistics starts a go routine that periodically logs memory
// usage of the go process. Once ctx is done, the metrics of the gatherer are
// dumped into dumpPath, if not empty.
func EnableMemoryStatistics(
	ctx context.Context, interval time.Duration,
	gatherer prometheus.Gatherer, dumpPath string,
) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				log.Info(ReadMemoryStats())
			case <-ctx.Done():
				if dumpPath == "" || gatherer == nil {
					return
				}
				if err := DumpMetrics(gatherer, dumpPath); err != nil {
					log.WithError(err).Warn("failed to dump metrics")
				}
				return
			}
		}
	}()
}

// DumpMetrics appends the metrics of the gatherer to the file at path.
func DumpMetrics(gatherer prometheus.Gatherer, path string) error {
	metricFamily, err := gatherer.Gather()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, v := range metricFamily {
		if _, err := writer.WriteString(v.String() + "\n"); err != nil {
			return err
		}
	}
	return writer.Flush()
}

func toMegabytes(bytes uint64) float64 {
	return float64(bytes) / MEGABYTE
}
