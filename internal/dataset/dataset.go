// Package dataset reads labeled membership samples from JSON Lines files.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// Sample is one labeled text. Label 1 marks a text seen in training.
type Sample struct {
	Text  string `json:"text"`
	Label int    `json:"label"`
}

// record accepts the WikiMIA field names.
type record struct {
	Input   string `json:"input"`
	Content string `json:"content"`
	Text    string `json:"text"`
	Label   *int   `json:"label"`
}

type options struct {
	limit int
}

type Option func(*options)

// WithLimit stops after n samples. n <= 0 reads everything.
func WithLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}

const maxLineSize = 16 << 20

// ReadFile reads a .jsonl file, or a zstd-compressed .jsonl.zst file.
func ReadFile(path string, opts ...Option) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	samples, err := Read(r, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Debug().Str("path", path).Int("samples", len(samples)).Msg("dataset loaded")
	return samples, nil
}

// Read decodes one JSON object per line. Blank lines are skipped. The text is
// taken from "input", then "content", then "text".
func Read(r io.Reader, opts ...Option) ([]Sample, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	samples := []Sample{}
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var rec record
		if err := sonic.UnmarshalString(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.Label == nil {
			return nil, fmt.Errorf("line %d: missing label", line)
		}
		if *rec.Label != 0 && *rec.Label != 1 {
			return nil, fmt.Errorf("line %d: label must be 0 or 1, got %d", line, *rec.Label)
		}

		samples = append(samples, Sample{
			Text:  firstNonEmpty(rec.Input, rec.Content, rec.Text),
			Label: *rec.Label,
		})
		if o.limit > 0 && len(samples) >= o.limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return samples, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Split returns texts and labels in sample order.
func Split(samples []Sample) ([]string, []int) {
	texts := make([]string, len(samples))
	labels := make([]int, len(samples))
	for i, s := range samples {
		texts[i] = s.Text
		labels[i] = s.Label
	}
	return texts, labels
}
