package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/memscope/pkg/compression"
	"github.com/memscope/pkg/model"
)

// Writer writes scan reports as JSON.
type Writer struct {
	// Indent specifies the indentation for pretty printing.
	// Empty string means compact output.
	Indent string
}

// NewWriter creates a writer with compact output.
func NewWriter() *Writer {
	return &Writer{}
}

// NewPrettyWriter creates a writer with pretty printing.
func NewPrettyWriter() *Writer {
	return &Writer{Indent: "  "}
}

// Write encodes report to out.
func (w *Writer) Write(report *model.ScanReport, out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	if w.Indent != "" {
		enc.SetIndent("", w.Indent)
	}
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteCompressed encodes report to out through the given compression.
func (w *Writer) WriteCompressed(report *model.ScanReport, out io.Writer, t compression.Type) error {
	cw, err := compression.NewWriter(out, t)
	if err != nil {
		return err
	}
	if err := w.Write(report, cw); err != nil {
		cw.Close()
		return err
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to flush %s stream: %w", t, err)
	}
	return nil
}

// WriteToFile writes report to path. The compression follows the file
// extension (".gz", ".zst", otherwise plain JSON).
func (w *Writer) WriteToFile(report *model.ScanReport, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := w.WriteCompressed(report, file, compression.ForPath(path)); err != nil {
		return err
	}
	return file.Close()
}

// WriteText writes the report lines, one per line.
func WriteText(report *model.ScanReport, out io.Writer) error {
	for _, line := range report.Lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

// Read decodes a JSON report, detecting gzip or zstd compression.
func Read(in io.Reader) (*model.ScanReport, error) {
	r, err := compression.NewReader(in)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var report model.ScanReport
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}
