package storage

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// ParseSubscribers decodes one id per line. CRLF line endings and blank lines
// are accepted; any other non-numeric line fails the whole list.
func ParseSubscribers(data []byte) ([]int64, error) {
	var ids []int64
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatSubscribers encodes ids one per line.
func FormatSubscribers(ids []int64) []byte {
	var b bytes.Buffer
	for _, id := range ids {
		b.WriteString(strconv.FormatInt(id, 10))
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// ParseWatermark decodes a single integer, ignoring surrounding whitespace.
func ParseWatermark(data []byte) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}

// FormatWatermark encodes the watermark.
func FormatWatermark(id int64) []byte {
	return []byte(strconv.FormatInt(id, 10) + "\n")
}
