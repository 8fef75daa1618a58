package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

var (
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
	outMu  sync.Mutex
)

// printf serializes writes from the command and the session event printer.
func printf(format string, args ...any) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(stdout, format, args...)
}

func printJSON(v any) error {
	outMu.Lock()
	defer outMu.Unlock()
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func promptRequired(label string) (string, error) {
	if !stdinIsTTY() {
		return "", fmt.Errorf("%s is required", label)
	}
	printf("%s: ", label)
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	return value, nil
}

func stdinIsTTY() bool {
	f, ok := stdin.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// valueOrPrompt returns v, or asks for it on a terminal when empty.
func valueOrPrompt(v *string, label string) error {
	if strings.TrimSpace(*v) != "" {
		*v = strings.TrimSpace(*v)
		return nil
	}
	value, err := promptRequired(label)
	if err != nil {
		return err
	}
	*v = value
	return nil
}

func formatSeconds(s float64) string {
	if s < 0 {
		s = 0
	}
	total := int(s)
	return fmt.Sprintf("%02d:%02d.%d", total/60, total%60, int((s-float64(total))*10))
}
