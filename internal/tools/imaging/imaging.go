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

// Package imaging creates PNG thumbnails for the create_thumbnail tool.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tombee/mcp-toolbox/internal/permissions"
	toolboxerrors "github.com/tombee/mcp-toolbox/pkg/errors"
)

// Limits on inputs and outputs.
const (
	MaxDimension    = 4096
	MaxFileBytes    = 50 << 20
	maxSourcePixels = 100_000_000
	DefaultSize     = 100
)

// MIMEType is the content type of every thumbnail.
const MIMEType = "image/png"

// Result describes a generated thumbnail.
type Result struct {
	Data         []byte
	Width        int
	Height       int
	SourceWidth  int
	SourceHeight int
	SourceFormat string
}

// Thumbnail decodes an image from r and returns it as PNG scaled to fit
// within maxW x maxH. Aspect ratio is kept and images are never upscaled.
func Thumbnail(r io.Reader, maxW, maxH int) ([]byte, error) {
	res, err := thumbnail(r, maxW, maxH, MaxDimension, MaxFileBytes)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// Processor creates thumbnails from files the path checker allows.
type Processor struct {
	checker      *permissions.Checker
	maxDimension int
	maxFileBytes int64
}

// NewProcessor creates a Processor. Zero limits use the package maxima.
func NewProcessor(checker *permissions.Checker, maxDimension int, maxFileBytes int64) *Processor {
	if maxDimension <= 0 || maxDimension > MaxDimension {
		maxDimension = MaxDimension
	}
	if maxFileBytes <= 0 {
		maxFileBytes = MaxFileBytes
	}
	return &Processor{checker: checker, maxDimension: maxDimension, maxFileBytes: maxFileBytes}
}

// ThumbnailFile reads path and returns its thumbnail.
func (p *Processor) ThumbnailFile(path string, maxW, maxH int) (*Result, error) {
	if err := validateSize(maxW, maxH, p.maxDimension); err != nil {
		return nil, err
	}

	resolved, err := p.checker.CheckRead(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &toolboxerrors.NotFoundError{Resource: "image", ID: path}
		}
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.IsDir() {
		return nil, &toolboxerrors.ValidationError{Field: "path", Message: path + " is a directory"}
	}
	if info.Size() > p.maxFileBytes {
		return nil, tooLarge(info.Size(), p.maxFileBytes)
	}

	return thumbnail(f, maxW, maxH, p.maxDimension, p.maxFileBytes)
}

func thumbnail(r io.Reader, maxW, maxH, maxDimension int, maxBytes int64) (*Result, error) {
	if err := validateSize(maxW, maxH, maxDimension); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, tooLarge(int64(len(data)), maxBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, undecodable(err)
	}
	if cfg.Width*cfg.Height > maxSourcePixels {
		return nil, &toolboxerrors.ValidationError{
			Field:   "path",
			Message: fmt.Sprintf("image is %dx%d, more than %d pixels", cfg.Width, cfg.Height, maxSourcePixels),
		}
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, undecodable(err)
	}

	sb := src.Bounds()
	w, h := fit(sb.Dx(), sb.Dy(), maxW, maxH)

	var out image.Image = src
	if w != sb.Dx() || h != sb.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}

	return &Result{
		Data:         buf.Bytes(),
		Width:        w,
		Height:       h,
		SourceWidth:  sb.Dx(),
		SourceHeight: sb.Dy(),
		SourceFormat: format,
	}, nil
}

// fit scales w x h down to fit inside maxW x maxH, keeping aspect ratio.
// Neither side drops below one pixel.
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	return min(nw, maxW), min(nh, maxH)
}

func validateSize(w, h, maxDimension int) error {
	if w < 1 || w > maxDimension {
		return &toolboxerrors.ValidationError{
			Field:   "width",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", maxDimension, w),
		}
	}
	if h < 1 || h > maxDimension {
		return &toolboxerrors.ValidationError{
			Field:   "height",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", maxDimension, h),
		}
	}
	return nil
}

func tooLarge(size, limit int64) error {
	return &toolboxerrors.ValidationError{
		Field:   "path",
		Message: fmt.Sprintf("image is larger than %d bytes", limit),
		Hint:    fmt.Sprintf("file is at least %d bytes; resize it before use", size),
	}
}

func undecodable(err error) error {
	return &toolboxerrors.ValidationError{
		Field:   "path",
		Message: fmt.Sprintf("not a supported image: %s", err),
		Hint:    "supported formats are PNG, JPEG, GIF, WebP, BMP and TIFF",
	}
}
