package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"ReceiptCapture/api"
	"ReceiptCapture/autocapture"
	"ReceiptCapture/config"
	"ReceiptCapture/engine"
	iface "ReceiptCapture/interface"
	"ReceiptCapture/logger"
	"ReceiptCapture/monitor"
	"ReceiptCapture/scanner"
	"ReceiptCapture/upload"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

func main() {
	if err := logger.InitProduction(); err != nil {
		fmt.Println("Failed to init logger:", err)
		return
	}
	defer logger.Sync()

	fmt.Println(strings.Repeat("#", 64))
	CPUNum := runtime.NumCPU()
	runtime.GOMAXPROCS(CPUNum)
	fmt.Printf("CPU Cores: %d\n", CPUNum)

	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Println("Failed to load config file:", err)
		return
	}
	fmt.Println("Camera device:", cfg.Camera.DeviceID)
	fmt.Println("Output dir:   ", cfg.Capture.OutputDir)
	fmt.Println("API port:     ", cfg.API.Port)
	fmt.Println("Metrics port: ", cfg.Monitor.Port)
	fmt.Println(strings.Repeat("#", 64))

	// decode chain: fast zxing pass first, thorough Code128 pass as fallback
	decoder := engine.NewDecoder(engine.NewFastEngine(), engine.NewDeepEngine(), cfg.Decoder)
	boundary := scanner.NewDocumentDetector(cfg.Scanner)
	dedup := autocapture.NewDeduplicator()

	pipeline := autocapture.NewPipeline(boundary, decoder, dedup,
		cfg.Capture.OutputDir, cfg.Capture.DecodeRectified)
	if cfg.Upload.Enabled {
		client := upload.NewClient(cfg.Upload)
		pipeline.SetUploader(client, func(barcode, imagePath, url string) {
			logger.Log().Info("receipt upload confirmed",
				zap.String("barcode", barcode), zap.String("url", url))
		})
	} else {
		logger.Log().Info("upload disabled, captures stay local")
	}

	detector := autocapture.NewFrameChangeDetector(cfg.Motion)
	svc := autocapture.NewService(detector, pipeline, cfg.Capture)
	svc.Start()
	svc.Enable()

	ctx, cancel := context.WithCancel(context.Background())
	go monitor.StartMon(cfg.Monitor.Port, ctx)
	go func() {
		server := api.NewServer(svc, dedup)
		if err := server.Run(cfg.API.Port); err != nil {
			logger.Log().Error("operator API stopped", zap.Error(err))
		}
	}()
	go consumeResults(svc)

	cam, err := gocv.OpenVideoCapture(cfg.Camera.DeviceID)
	if err != nil {
		fmt.Println("Failed to open camera:", err)
		cancel()
		return
	}
	defer cam.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	streamFrames(ctx, cam, svc, cfg.Camera, sig)

	cancel()
	svc.Disable()
	svc.Stop()
	fmt.Println("Safely exited")
}

// streamFrames is the producer loop: read a frame, hand its pixels to the
// state machine, repeat at the configured cadence until interrupted.
func streamFrames(ctx context.Context, cam *gocv.VideoCapture, svc *autocapture.Service, cfg config.CameraConfig, sig <-chan os.Signal) {
	mat := gocv.NewMat()
	defer mat.Close()
	bgr := gocv.NewMat()
	defer bgr.Close()

	ticker := time.NewTicker(time.Duration(cfg.FrameIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			logger.Log().Info("shutdown signal received")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if ok := cam.Read(&mat); !ok || mat.Empty() {
			logger.Log().Warn("camera frame read failed")
			continue
		}

		src := mat
		if mat.Channels() == 4 {
			gocv.CvtColor(mat, &bgr, gocv.ColorBGRAToBGR)
			src = bgr
		} else if mat.Channels() == 1 {
			gocv.CvtColor(mat, &bgr, gocv.ColorGrayToBGR)
			src = bgr
		}

		frame := iface.NewFrame(src.Cols(), src.Rows(), src.ToBytes(), time.Now())
		svc.OnFrame(frame)
	}
}

// consumeResults turns pipeline outcomes into operator status lines, one per
// result, the way the desk UI used to.
func consumeResults(svc *autocapture.Service) {
	for res := range svc.Results() {
		switch res.Kind {
		case iface.ResultSuccess:
			logger.Log().Info("capture succeeded",
				zap.String("barcode", res.Barcode), zap.String("file", res.ImagePath))
		case iface.ResultDuplicate:
			logger.Log().Info("duplicate barcode skipped", zap.String("barcode", res.Barcode))
		case iface.ResultFailure:
			logger.Log().Warn("capture failed", zap.String("reason", res.Err))
		}
	}
}
