package api

import (
	"math"
	"os"

	"github.com/shirou/gopsutil/v3/disk"
)

// StorageStatus reports whether a configured directory exists and how much
// space is left on the filesystem holding it.
type StorageStatus struct {
	Path        string  `json:"path"`
	Exists      bool    `json:"exists"`
	TotalBytes  uint64  `json:"total_bytes,omitempty"`
	FreeBytes   uint64  `json:"free_bytes,omitempty"`
	UsedPercent float64 `json:"used_percent,omitempty"`
	Error       string  `json:"error,omitempty"`
}

func storageStatus(path string) StorageStatus {
	status := StorageStatus{Path: path}

	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return status
	}
	status.Exists = true

	usage, err := disk.Usage(path)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.TotalBytes = usage.Total
	status.FreeBytes = usage.Free
	status.UsedPercent = math.Round(usage.UsedPercent*10) / 10
	return status
}
