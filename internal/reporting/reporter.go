// internal/reporting/reporter.go
package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/mitchellh/go-homedir"

	"github.com/xkilldash9x/scribe/internal/action"
)

const (
	// FormatScript writes the generated Playwright test.
	FormatScript = "script"
	// FormatActions writes the saved action log as JSON.
	FormatActions = "actions"

	brotliExt = ".br"
)

// Result is everything a finished recording can be reported as.
type Result struct {
	Script string
	Log    action.SavedLog
}

// Reporter writes a recording result to an output.
type Reporter interface {
	Write(result Result) error
	// Close flushes and closes the underlying output. Stdout is never closed.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// brotliFile closes the compressor before the file it writes to.
type brotliFile struct {
	*brotli.Writer
	f *os.File
}

func (b *brotliFile) Close() error {
	if err := b.Writer.Close(); err != nil {
		b.f.Close()
		return fmt.Errorf("failed to flush compressed output: %w", err)
	}
	return b.f.Close()
}

// IsStdout reports whether outputPath names standard output.
func IsStdout(outputPath string) bool {
	return outputPath == "" || outputPath == "-" || outputPath == "stdout"
}

// Open returns a writer for outputPath. A leading ~ is expanded, missing
// parent directories are created and a .br suffix selects brotli compression.
func Open(outputPath string, stdout io.Writer) (io.WriteCloser, error) {
	if IsStdout(outputPath) {
		return &nopWriteCloser{stdout}, nil
	}

	path, err := homedir.Expand(outputPath)
	if err != nil {
		return nil, fmt.Errorf("could not resolve output path '%s': %w", outputPath, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	if strings.HasSuffix(path, brotliExt) {
		return &brotliFile{Writer: brotli.NewWriterLevel(f, brotli.DefaultCompression), f: f}, nil
	}
	return f, nil
}

// New creates a reporter for format writing to outputPath.
func New(format, outputPath string, stdout io.Writer) (Reporter, error) {
	switch format {
	case FormatScript, FormatActions:
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	w, err := Open(outputPath, stdout)
	if err != nil {
		return nil, err
	}
	return &reporter{format: format, w: w}, nil
}

type reporter struct {
	format string
	w      io.WriteCloser
}

func (r *reporter) Write(result Result) error {
	var data []byte
	switch r.format {
	case FormatScript:
		data = []byte(result.Script)
	case FormatActions:
		encoded, err := action.Encode(result.Log)
		if err != nil {
			return fmt.Errorf("failed to encode action log: %w", err)
		}
		data = append(encoded, '\n')
	}
	if _, err := r.w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s output: %w", r.format, err)
	}
	return nil
}

func (r *reporter) Close() error {
	return r.w.Close()
}

// ReadActions loads a saved action log written by an actions reporter.
func ReadActions(inputPath string) (action.SavedLog, error) {
	path, err := homedir.Expand(inputPath)
	if err != nil {
		return action.SavedLog{}, fmt.Errorf("could not resolve input path '%s': %w", inputPath, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return action.SavedLog{}, fmt.Errorf("failed to open action log: %w", err)
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, brotliExt) {
		src = brotli.NewReader(f)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return action.SavedLog{}, fmt.Errorf("failed to read action log: %w", err)
	}
	return action.Decode(data)
}
