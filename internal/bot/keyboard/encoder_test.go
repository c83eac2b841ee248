package keyboard_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/parfum-bot/internal/bot/keyboard"
)

func TestEncodeCallback(t *testing.T) {
	tests := []struct {
		name      string
		action    string
		data      string
		want      string
		wantError bool
	}{
		{name: "with data", action: "var", data: "25ml", want: "var:25ml"},
		{name: "without data", action: "save", want: "save"},
		{name: "exactly at limit", action: "pick", data: strings.Repeat("1", 59), want: "pick:" + strings.Repeat("1", 59)},
		{name: "exceeds limit", action: "pick", data: strings.Repeat("1", 60), wantError: true},
		{name: "empty", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := keyboard.EncodeCallback(tt.action, tt.data)
			if tt.wantError {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCallback(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantAction string
		wantData   string
		wantErr    bool
	}{
		{name: "action and data", input: "page:3", wantAction: "page", wantData: "3"},
		{name: "only action", input: "browse", wantAction: "browse"},
		{name: "multiple separators", input: "var:Roll:On", wantAction: "var", wantData: "Roll:On"},
		{name: "empty input", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, data, err := keyboard.DecodeCallback(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantAction, action)
			assert.Equal(t, tt.wantData, data)
		})
	}
}
