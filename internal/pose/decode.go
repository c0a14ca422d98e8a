package pose

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// maxLineBytes bounds a single JSON frame.
const maxLineBytes = 1 << 20

// #region decode-frames

// DecodeFrames reads newline-delimited JSON frames from r and sends them on out
// until EOF or ctx is cancelled. Blank lines are skipped. Malformed lines and
// lines longer than maxLineBytes are logged and skipped. out is closed on return.
func DecodeFrames(ctx context.Context, r io.Reader, out chan<- Frame, logger *slog.Logger) error {
	defer close(out)
	if logger == nil {
		logger = slog.Default()
	}

	br := bufio.NewReaderSize(r, 64*1024)
	line := 0
	for {
		raw, tooLong, err := readLine(br, maxLineBytes)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read frames: %w", err)
		}
		if err == nil || len(raw) > 0 || tooLong {
			line++
		}

		if tooLong {
			logger.Warn("skipping oversized frame", "line", line, "limit", maxLineBytes)
		} else if text := bytes.TrimSpace(raw); len(text) > 0 {
			var f Frame
			if jerr := json.Unmarshal(text, &f); jerr != nil {
				logger.Warn("skipping malformed frame", "line", line, "error", jerr)
			} else {
				select {
				case out <- f:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		if err != nil {
			return nil
		}
	}
}

// readLine returns the next line including its newline. A line over limit is
// drained from br and reported with tooLong instead of being returned.
func readLine(br *bufio.Reader, limit int) ([]byte, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > limit {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !errors.Is(err, bufio.ErrBufferFull) {
			return buf, tooLong, err
		}
	}
}

// #endregion decode-frames
