package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm prints prompt and reads one line from r. Only "y" or "yes"
// (case-insensitive) count as confirmation; anything else, including
// EOF, declines.
func Confirm(r io.Reader, w io.Writer, prompt string) (bool, error) {
	if _, err := fmt.Fprintf(w, "%s [y/N]: ", prompt); err != nil {
		return false, fmt.Errorf("pipeline: write prompt: %w", err)
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("pipeline: read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
