package apiclient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	type file struct {
		ID       int    `json:"id"`
		Filename string `json:"filename"`
		Size     string `json:"size"`
	}

	var raw any
	require.NoError(t, json.Unmarshal([]byte(`[{"id":7,"filename":"a.pdf","size":12.5,"extra":true}]`), &raw))

	var files []file
	require.NoError(t, Decode(raw, &files))

	require.Len(t, files, 1)
	assert.Equal(t, 7, files[0].ID)
	assert.Equal(t, "a.pdf", files[0].Filename)
	assert.Equal(t, "12.5", files[0].Size)
}

func TestDecodeRejectsMismatchedShape(t *testing.T) {
	var out struct {
		ID int `json:"id"`
	}
	assert.Error(t, Decode(map[string]any{"id": map[string]any{"nested": 1}}, &out))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		data any
		want string
	}{
		{name: "nil", data: nil, want: "request failed"},
		{name: "raw text", data: "oops", want: "request failed"},
		{name: "empty detail", data: map[string]any{"detail": ""}, want: "request failed"},
		{name: "detail", data: map[string]any{"detail": "Email not verified"}, want: "Email not verified"},
		{name: "detail list without msg", data: map[string]any{"detail": []any{"x"}}, want: "request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage(tt.data))
		})
	}
}
