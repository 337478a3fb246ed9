// Package config holds every tunable of the capture core. All thresholds that
// were hand-tuned on the high camera rig are plain named fields here so an
// operator can override them in config.yaml without touching code.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Camera  CameraConfig  `yaml:"camera"`
	Motion  MotionConfig  `yaml:"motion"`
	Capture CaptureConfig `yaml:"capture"`
	Scanner ScannerConfig `yaml:"scanner"`
	Decoder DecoderConfig `yaml:"decoder"`
	Upload  UploadConfig  `yaml:"upload"`
	Monitor MonitorConfig `yaml:"monitor"`
	API     APIConfig     `yaml:"api"`
}

type CameraConfig struct {
	DeviceID        int `yaml:"deviceID"`
	FrameIntervalMs int `yaml:"frameIntervalMs"`
}

// MotionConfig tunes the sparse-grid frame change detector.
type MotionConfig struct {
	// SampleStride is the pixel step of the sampling grid.
	SampleStride int `yaml:"sampleStride"`
	// DiffThreshold is the summed absolute BGR difference above which a
	// sampled pixel counts as changed.
	DiffThreshold int `yaml:"diffThreshold"`
	// ChangeCountThreshold is how many changed samples flag the frame as
	// changing.
	ChangeCountThreshold int `yaml:"changeCountThreshold"`
}

type CaptureConfig struct {
	// StableFrames is the number of consecutive still frames required before
	// a capture fires.
	StableFrames int `yaml:"stableFrames"`
	// CooldownMs is the minimum spacing between two accepted triggers.
	CooldownMs int `yaml:"cooldownMs"`
	// OutputDir receives one <barcode>.png per accepted capture.
	OutputDir string `yaml:"outputDir"`
	// DecodeRectified decodes against the rectified image instead of the raw
	// snapshot. The raw snapshot is the safer default: the barcode sits near
	// the sheet edge and an imperfect warp can clip it.
	DecodeRectified bool `yaml:"decodeRectified"`
}

type ScannerConfig struct {
	BlurKernel        int     `yaml:"blurKernel"`
	CannyLow          float32 `yaml:"cannyLow"`
	CannyHigh         float32 `yaml:"cannyHigh"`
	MinArea           float64 `yaml:"minArea"`
	TargetRatio       float64 `yaml:"targetRatio"`
	RatioTolerance    float64 `yaml:"ratioTolerance"`
	AngleToleranceDeg float64 `yaml:"angleToleranceDeg"`
	MaxAngleDevDeg    float64 `yaml:"maxAngleDevDeg"`
	AcceptThreshold   float64 `yaml:"acceptThreshold"`
}

type DecoderConfig struct {
	// ROI crop of the barcode corner, as fractions of the full image.
	ROIWidthFrac  float64 `yaml:"roiWidthFrac"`
	ROIHeightFrac float64 `yaml:"roiHeightFrac"`
	ROITopFrac    float64 `yaml:"roiTopFrac"`
	ROIMinWidth   int     `yaml:"roiMinWidth"`
	ROIMinHeight  int     `yaml:"roiMinHeight"`

	MinLength int `yaml:"minLength"`
	MaxLength int `yaml:"maxLength"`

	// Scales tried during the enhancement ladder after both engines miss.
	Scales []float64 `yaml:"scales"`
	// MaxRotations bounds the 90-degree retry variants (0 disables rotation).
	MaxRotations int `yaml:"maxRotations"`
}

type UploadConfig struct {
	Enabled          bool   `yaml:"enabled"`
	BaseURL          string `yaml:"baseURL"`
	ConnectTimeoutMs int    `yaml:"connectTimeoutMs"`
	ReadTimeoutMs    int    `yaml:"readTimeoutMs"`
}

type MonitorConfig struct {
	Port int `yaml:"port"`
}

type APIConfig struct {
	Port int `yaml:"port"`
}

// Default returns the configuration the original rig was tuned with.
func Default() Config {
	return Config{
		Camera: CameraConfig{
			DeviceID:        0,
			FrameIntervalMs: 100,
		},
		Motion: MotionConfig{
			SampleStride:         20,
			DiffThreshold:        25,
			ChangeCountThreshold: 300,
		},
		Capture: CaptureConfig{
			StableFrames: 8,
			CooldownMs:   1500,
			OutputDir:    "captures",
		},
		Scanner: ScannerConfig{
			BlurKernel:        5,
			CannyLow:          75,
			CannyHigh:         200,
			MinArea:           50000,
			TargetRatio:       1.4142,
			RatioTolerance:    0.15,
			AngleToleranceDeg: 15,
			MaxAngleDevDeg:    45,
			AcceptThreshold:   0.7,
		},
		Decoder: DecoderConfig{
			ROIWidthFrac:  0.40,
			ROIHeightFrac: 0.20,
			ROITopFrac:    0.06,
			ROIMinWidth:   300,
			ROIMinHeight:  150,
			MinLength:     6,
			MaxLength:     30,
			Scales:        []float64{1.5, 2.0},
			MaxRotations:  3,
		},
		Upload: UploadConfig{
			Enabled:          false,
			BaseURL:          "http://127.0.0.1:3680/api",
			ConnectTimeoutMs: 30000,
			ReadTimeoutMs:    60000,
		},
		Monitor: MonitorConfig{Port: 50053},
		API:     APIConfig{Port: 8080},
	}
}

// Load reads path and unmarshals it over the defaults, so a partial file only
// overrides what it names. A missing file returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Motion.SampleStride <= 0 {
		return fmt.Errorf("motion.sampleStride must be positive, got %d", c.Motion.SampleStride)
	}
	if c.Capture.StableFrames <= 0 {
		return fmt.Errorf("capture.stableFrames must be positive, got %d", c.Capture.StableFrames)
	}
	if c.Capture.CooldownMs < 0 {
		return fmt.Errorf("capture.cooldownMs must not be negative, got %d", c.Capture.CooldownMs)
	}
	if c.Capture.OutputDir == "" {
		return fmt.Errorf("capture.outputDir must not be empty")
	}
	if c.Scanner.BlurKernel%2 == 0 {
		return fmt.Errorf("scanner.blurKernel must be odd, got %d", c.Scanner.BlurKernel)
	}
	if c.Scanner.AcceptThreshold < 0 || c.Scanner.AcceptThreshold > 1 {
		return fmt.Errorf("scanner.acceptThreshold must be in [0,1], got %v", c.Scanner.AcceptThreshold)
	}
	if c.Decoder.MinLength <= 0 || c.Decoder.MaxLength < c.Decoder.MinLength {
		return fmt.Errorf("decoder length bounds invalid: [%d,%d]", c.Decoder.MinLength, c.Decoder.MaxLength)
	}
	if c.Decoder.MaxRotations < 0 {
		return fmt.Errorf("decoder.maxRotations must not be negative, got %d", c.Decoder.MaxRotations)
	}
	if c.Upload.Enabled && c.Upload.BaseURL == "" {
		return fmt.Errorf("upload.baseURL must be set when upload is enabled")
	}
	return nil
}

func (c *CaptureConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMs) * time.Millisecond
}
