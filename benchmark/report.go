package benchmark

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pkg/errors"
)

// MemoryMetrics captures memory usage statistics
type MemoryMetrics struct {
	AllocBytes      uint64 `json:"alloc_bytes"`
	TotalAllocBytes uint64 `json:"total_alloc_bytes"`
	SysBytes        uint64 `json:"sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	HeapAllocBytes  uint64 `json:"heap_alloc_bytes"`
	HeapSysBytes    uint64 `json:"heap_sys_bytes"`
}

// readMemory captures the memory delta since start.
func readMemory(start runtime.MemStats) MemoryMetrics {
	var end runtime.MemStats
	runtime.ReadMemStats(&end)
	return MemoryMetrics{
		AllocBytes:      end.Alloc,
		TotalAllocBytes: end.TotalAlloc - start.TotalAlloc,
		SysBytes:        end.Sys,
		NumGC:           end.NumGC - start.NumGC,
		HeapAllocBytes:  end.HeapAlloc,
		HeapSysBytes:    end.HeapSys,
	}
}

// Report summarizes a directory run.
type Report struct {
	Timestamp     time.Time     `json:"timestamp"`
	Images        int           `json:"images"`
	Batches       int           `json:"batches"`
	Measured      int           `json:"measured"`
	HostAverage   time.Duration `json:"host_average"`
	DeviceAverage time.Duration `json:"device_average"`
	Detections    int           `json:"detection_count"`
	MemoryStats   MemoryMetrics `json:"memory_stats"`
}

// Print writes the average timing lines to w when any batch was measured.
func (r Report) Print(w io.Writer) error {
	if r.Measured == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Average infer CPU elapsed time: %v ms\n", milliseconds(r.HostAverage)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Average infer GPU elapsed time: %v ms\n", milliseconds(r.DeviceAverage))
	return err
}

// Save persists the report as JSON to path.
func (r Report) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create report directory")
		}
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write report file")
	}
	return nil
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
