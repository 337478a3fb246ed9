// Package upload ships accepted captures to the MES receipt endpoints. The
// gateway routes by path prefix; the sheet type is encoded in the first
// character of the delivery note number.
package upload

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"ReceiptCapture/config"
	"ReceiptCapture/logger"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	// "J"-prefixed notes are JIS sheets, everything else is a JIT sheet;
	// each has its own receipt upload controller behind the gateway.
	jisEndpoint = "/hylir-mes-center/api/v1/integration/chery/tmmmjissheet/receipt/upload"
	jitEndpoint = "/hylir-mes-center/api/v1/integration/chery/tmmmjitsheet/receipt/upload"
)

type uploadResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data string `json:"data"`
}

type Client struct {
	http    *resty.Client
	baseURL string
}

func NewClient(cfg config.UploadConfig) *Client {
	dialer := &net.Dialer{
		Timeout: time.Duration(cfg.ConnectTimeoutMs) * time.Millisecond,
	}
	rc := resty.New().
		SetTimeout(time.Duration(cfg.ReadTimeoutMs) * time.Millisecond).
		SetTransport(&http.Transport{DialContext: dialer.DialContext})
	logger.Log().Info("upload client initialized", zap.String("baseURL", cfg.BaseURL))
	return &Client{
		http:    rc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Upload posts the saved capture image for the given delivery note number and
// returns the stored file URL.
func (c *Client) Upload(barcode, imagePath string) (string, error) {
	if barcode == "" {
		return "", fmt.Errorf("empty delivery note number")
	}
	if _, err := os.Stat(imagePath); err != nil {
		return "", fmt.Errorf("capture image missing: %w", err)
	}

	url := c.baseURL + endpointFor(barcode)
	var respBody uploadResponse
	resp, err := c.http.R().
		SetFile("file", imagePath).
		SetFormData(map[string]string{"receiptNumber": barcode}).
		SetResult(&respBody).
		Post(url)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("upload rejected: %s, body: %s", resp.Status(), resp.String())
	}
	if respBody.Code != 0 && respBody.Code != 200 {
		return "", fmt.Errorf("upload refused by backend: code=%d msg=%s", respBody.Code, respBody.Msg)
	}

	logger.Log().Info("receipt uploaded",
		zap.String("barcode", barcode), zap.String("url", respBody.Data))
	return respBody.Data, nil
}

func endpointFor(barcode string) string {
	if strings.HasPrefix(barcode, "J") {
		return jisEndpoint
	}
	return jitEndpoint
}
