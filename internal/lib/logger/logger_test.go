package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		env       string
		wantJSON  bool
		wantDebug bool
	}{
		{env: "local", wantDebug: true},
		{env: "dev", wantJSON: true, wantDebug: true},
		{env: "prod", wantJSON: true},
		{env: "", wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			log := setup(tt.env, &buf)

			assert.Equal(t, tt.wantDebug, log.Enabled(context.Background(), slog.LevelDebug))

			log.Info("hello", slog.String("k", "v"))
			if tt.wantJSON {
				var got map[string]any
				require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
				assert.Equal(t, "hello", got["msg"])
			} else {
				assert.Contains(t, buf.String(), "msg=hello")
			}
		})
	}
}
