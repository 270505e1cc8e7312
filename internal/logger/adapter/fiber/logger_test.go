package fiber_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter "github.com/go-overtime-admin/go-overtime-admin/internal/logger/adapter/fiber"

	"github.com/go-overtime-admin/go-overtime-admin/internal/logger"
)

// accessLogLine implements the loggers default json format.
type accessLogLine struct {
	Status int    `json:"status"`
	URI    string `json:"URI"`
	Method string `json:"method"`
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		config     adapter.Config
		targetPath string
		wantOutput *accessLogLine
	}{
		{
			name:       "empty config no output at all",
			targetPath: "/",
			wantOutput: nil,
		},
		{
			name:       "get / log to console json",
			targetPath: "/",
			config: adapter.Config{
				Config: logger.Log{
					EnableAccessLogToConsole: true,
					Console:                  logger.Console{Enabled: true},
				},
			},
			wantOutput: &accessLogLine{
				Status: 200,
				URI:    "/",
				Method: fiber.MethodGet,
			},
		},
		{
			name:       "checkalive not logged",
			targetPath: "/checkalive",
			config: adapter.Config{
				Config: logger.Log{
					EnableAccessLogToConsole: true,
					DisableCheckAlive:        true,
					Console:                  logger.Console{Enabled: true},
				},
				CheckAliveURI: "/checkalive",
			},
			wantOutput: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stdout := os.Stdout
			r, w, _ := os.Pipe()
			os.Stdout = w

			app := fiber.New()
			app.Use(adapter.New(tc.config))
			app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })
			app.Get("/checkalive", func(c *fiber.Ctx) error { return c.SendString("ok") })

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tc.targetPath, nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)

			outC := make(chan string)
			go func() {
				var buf bytes.Buffer
				_, _ = io.Copy(&buf, r)
				outC <- buf.String()
			}()

			_ = w.Close()
			os.Stdout = stdout
			out := <-outC

			if tc.wantOutput == nil {
				assert.Empty(t, out)
				return
			}

			var line accessLogLine
			require.NoError(t, json.Unmarshal([]byte(out), &line))
			assert.Equal(t, tc.wantOutput.Status, line.Status)
			assert.Equal(t, tc.wantOutput.URI, line.URI)
			assert.Equal(t, tc.wantOutput.Method, line.Method)
		})
	}
}
