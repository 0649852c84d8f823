// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/mcp-toolbox/internal/permissions"
	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	return cfg.Width, cfg.Height
}

func TestThumbnailKeepsAspect(t *testing.T) {
	data, err := Thumbnail(bytes.NewReader(encodePNG(t, testImage(400, 200))), 100, 100)
	require.NoError(t, err)

	w, h := decodeSize(t, data)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestThumbnailNoUpscale(t *testing.T) {
	data, err := Thumbnail(bytes.NewReader(encodePNG(t, testImage(40, 30))), 100, 100)
	require.NoError(t, err)

	w, h := decodeSize(t, data)
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)
}

func TestThumbnailFromJPEG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(300, 600), nil))

	data, err := Thumbnail(&buf, 100, 100)
	require.NoError(t, err)

	w, h := decodeSize(t, data)
	assert.Equal(t, 50, w)
	assert.Equal(t, 100, h)
}

func TestThumbnailErrors(t *testing.T) {
	valid := encodePNG(t, testImage(10, 10))

	tests := []struct {
		name string
		data []byte
		w, h int
	}{
		{"zero width", valid, 0, 10},
		{"too tall", valid, 10, MaxDimension + 1},
		{"garbage", []byte("definitely not an image"), 10, 10},
		{"empty", nil, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Thumbnail(bytes.NewReader(tt.data), tt.w, tt.h)
			require.Error(t, err)
			assert.True(t, toolboxerrors.IsValidation(err))
		})
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{400, 200, 100, 100, 100, 50},
		{200, 400, 100, 100, 50, 100},
		{100, 100, 100, 100, 100, 100},
		{1000, 1, 10, 10, 10, 1},
		{50, 50, 100, 10, 10, 10},
	}
	for _, tt := range tests {
		w, h := fit(tt.w, tt.h, tt.maxW, tt.maxH)
		assert.Equal(t, tt.wantW, w, "%+v", tt)
		assert.Equal(t, tt.wantH, h, "%+v", tt)
	}
}

func TestProcessorThumbnailFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "images", "photo.png"), encodePNG(t, testImage(256, 128)), 0o600))

	p := NewProcessor(permissions.NewCheckerAt(root, nil), 0, 0)

	res, err := p.ThumbnailFile("images/photo.png", 64, 64)
	require.NoError(t, err)
	assert.Equal(t, 64, res.Width)
	assert.Equal(t, 32, res.Height)
	assert.Equal(t, 256, res.SourceWidth)
	assert.Equal(t, "png", res.SourceFormat)

	_, err = p.ThumbnailFile("images/missing.png", 64, 64)
	assert.True(t, toolboxerrors.IsNotFound(err))

	_, err = p.ThumbnailFile("../outside.png", 64, 64)
	assert.True(t, permissions.IsPermissionError(err))

	_, err = p.ThumbnailFile("images", 64, 64)
	assert.True(t, toolboxerrors.IsValidation(err))
}

func TestProcessorRejectsLargeFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.png"), []byte(strings.Repeat("x", 2048)), 0o600))

	p := NewProcessor(permissions.NewCheckerAt(root, nil), 0, 1024)
	_, err := p.ThumbnailFile("big.png", 10, 10)
	require.Error(t, err)
	assert.True(t, toolboxerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "larger than 1024 bytes")
}
