package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v4/process"
)

// Counters live at package level so the pipeline can bump them even when the
// metrics server has not been started (tests, metrics disabled).
var (
	PID process.Process

	memUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "memory_usage_Megabytes",
		Help: "Memory usage in Megabytes",
	})
	cpuUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cpu_usage_percent",
		Help: "CPU usage in percent",
	})

	CapturesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "captures_total",
		Help: "Total number of accepted captures",
	})
	DuplicatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "duplicate_barcodes_total",
		Help: "Total number of captures skipped as duplicates",
	})
	FailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capture_failures_total",
		Help: "Total number of failed pipeline runs",
	})
	UploadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "receipt_uploads_total",
		Help: "Total number of successful receipt uploads",
	})
)

var srv *http.Server

func prom(port int) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(memUsage, cpuUsage, CapturesTotal, DuplicatesTotal, FailuresTotal, UploadsTotal)
	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: nil,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("Prometheus server ListenAndServe error: %v\n", err)
		}
	}()
}

func CheckProcessInfo() {
	MemInfo, _ := PID.MemoryInfo()
	var MemMB = MemInfo.RSS / 1024 / 1024
	CPUPercent, _ := PID.CPUPercent()
	CPUPercentFloat := math.Round(CPUPercent*100) / 100
	memUsage.Set(float64(MemMB))
	cpuUsage.Set(CPUPercentFloat)
}

func GotPID() {
	pid := os.Getpid()
	i32Pid := int32(pid)
	PID.Pid = i32Pid
}

func StartMon(port int, ctx context.Context) {
	PID = process.Process{}
	GotPID()
	go prom(port)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
checkPcs:
	for {
		select {
		case <-ctx.Done():
			break checkPcs
		case <-ticker.C:
			CheckProcessInfo()
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		fmt.Printf("Prometheus server Shutdown error: %v\n", err)
	}
}
