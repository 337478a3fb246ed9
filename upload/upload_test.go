package upload

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ReceiptCapture/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return NewClient(config.UploadConfig{
		BaseURL:          baseURL,
		ConnectTimeoutMs: 2000,
		ReadTimeoutMs:    2000,
	})
}

func writeCapture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "X202601200000093601.png")
	require.NoError(t, os.WriteFile(path, []byte("not a real png"), 0o644))
	return path
}

func TestEndpointFor(t *testing.T) {
	assert.Equal(t, jisEndpoint, endpointFor("J202601200000093601"))
	assert.Equal(t, jitEndpoint, endpointFor("X202601200000093601"))
	assert.Equal(t, jitEndpoint, endpointFor("202601200000093601"))
}

func TestUpload_PostsMultipartToRoutedEndpoint(t *testing.T) {
	var gotPath, gotNumber, gotFilename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		gotNumber = r.FormValue("receiptNumber")
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		gotFilename = hdr.Filename
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":200,"msg":"ok","data":"/files/x.png"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	url, err := c.Upload("X202601200000093601", writeCapture(t))
	require.NoError(t, err)

	assert.Equal(t, "/files/x.png", url)
	assert.Equal(t, jitEndpoint, gotPath)
	assert.Equal(t, "X202601200000093601", gotNumber)
	assert.Equal(t, "X202601200000093601.png", gotFilename)
}

func TestUpload_JisPrefixRoutesToJisEndpoint(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":0,"msg":"ok","data":""}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Upload("J202601200000093601", writeCapture(t))
	require.NoError(t, err)
	assert.Equal(t, jisEndpoint, gotPath)
}

func TestUpload_BackendRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":500,"msg":"duplicate receipt","data":""}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Upload("X202601200000093601", writeCapture(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate receipt")
}

func TestUpload_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Upload("X202601200000093601", writeCapture(t))
	assert.Error(t, err)
}

func TestUpload_ConnectTimeoutBoundsDial(t *testing.T) {
	// blackhole address: packets are dropped, so only the dial timeout
	// gets the call back
	c := NewClient(config.UploadConfig{
		BaseURL:          "http://10.255.255.1:9",
		ConnectTimeoutMs: 200,
		ReadTimeoutMs:    30000,
	})

	start := time.Now()
	_, err := c.Upload("X202601200000093601", writeCapture(t))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestUpload_InputValidation(t *testing.T) {
	c := testClient("http://127.0.0.1:1")

	t.Run("empty barcode", func(t *testing.T) {
		_, err := c.Upload("", "whatever.png")
		assert.Error(t, err)
	})

	t.Run("missing image file", func(t *testing.T) {
		_, err := c.Upload("X202601200000093601", filepath.Join(t.TempDir(), "gone.png"))
		assert.Error(t, err)
	})
}
