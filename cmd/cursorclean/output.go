package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	okMark   = color.GreenString("✓")
	failMark = color.RedString("✗")
	warnMark = color.YellowString("!")
	heading  = color.New(color.FgYellow, color.Bold)
)

func formatBytes(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	var s string
	switch {
	case n < 1024:
		s = fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		s = fmt.Sprintf("%.1f KB", float64(n)/1024)
	case n < 1024*1024*1024:
		s = fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	default:
		s = fmt.Sprintf("%.1f GB", float64(n)/(1024*1024*1024))
	}
	if neg {
		return "-" + s
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// stdinIsTerminal reports whether a human can answer a prompt.
func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// confirm asks a y/N question and reads one line of answer from in.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
