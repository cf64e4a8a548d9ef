package system

import (
	"os/exec"
	"runtime"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ivlev/zoomcomposer/internal/logger"
)

var log = logger.Log

// InitResourceLimits raises the open-file limit (macOS/Linux defaults are too
// low for large frame sets).
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Warnf("[!] Could not read the open-file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warnf("[!] Could not raise the open-file limit: %v", err)
	}
}

// Workers resolves the configured worker count. Values <= 0 mean "logical
// CPUs minus the absolute value", clamped to at least one worker.
func Workers(n int) int {
	if n > 0 {
		return n
	}

	cpus, err := cpu.Counts(true)
	if err != nil || cpus < 1 {
		cpus = runtime.NumCPU()
	}

	if w := cpus + n; w > 1 {
		return w
	}
	return 1
}

// CheckMemory warns when the worker pool's layer caches may not fit in the
// currently available memory. The render still proceeds; eviction only costs
// recomputation time.
func CheckMemory(workers, layerBytes, layersPerWorker int) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return
	}

	need := uint64(workers) * uint64(layersPerWorker) * uint64(layerBytes)
	if need > vm.Available {
		log.Warnf("[!] Layer caches may need ~%d MiB but only %d MiB is available; expect cache churn",
			need/(1<<20), vm.Available/(1<<20))
	}
}

// GetBestH264Encoder probes ffmpeg for hardware H.264 encoders, preferring
// VideoToolbox (macOS) and NVENC over software x264.
func GetBestH264Encoder() string {
	encoders := []string{"h264_videotoolbox", "h264_nvenc"}

	out, err := exec.Command("ffmpeg", "-encoders").CombinedOutput()
	if err == nil {
		for _, enc := range encoders {
			if strings.Contains(string(out), enc) {
				return enc
			}
		}
	}

	return "libx264"
}
