package prompter

import (
	"bufio"
	"io"
)

// ScanReader adapts any io.Reader (a pipe, a file, a test script) to
// LineReader.
type ScanReader struct {
	sc *bufio.Scanner
}

// NewScanReader returns a LineReader over r.
func NewScanReader(r io.Reader) *ScanReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	return &ScanReader{sc: sc}
}

// ReadLine returns the next line or io.EOF once r is exhausted.
func (s *ScanReader) ReadLine() (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
