/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gat2way/internal/canvas"
	"gat2way/internal/domain"
)

// Format is an export target.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
)

// ParseFormat accepts a format name or a file name with a known extension.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if ext := filepath.Ext(s); ext != "" {
		s = strings.TrimPrefix(ext, ".")
	}
	switch Format(s) {
	case FormatPDF, FormatPNG:
		return Format(s), nil
	}
	return "", fmt.Errorf("unsupported export format %q (want pdf or png)", s)
}

// DefaultFileName is canvas-<id>.<format>.
func DefaultFileName(p domain.Projeto, f Format) string {
	return fmt.Sprintf("canvas-%d.%s", p.ID, f)
}

// ToFile renders the canvas in format f into outPath, creating parent directories.
func ToFile(outPath string, f Format, p domain.Projeto, doc canvas.Document) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	fh, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", f, err)
	}
	switch f {
	case FormatPDF:
		err = CanvasPDF(fh, p, doc, PDFOptions{ShowGrid: true})
	case FormatPNG:
		err = CanvasPNG(fh, doc, PNGOptions{Labels: true})
	default:
		err = fmt.Errorf("unsupported export format %q", f)
	}
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(outPath)
	}
	return err
}
