package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// confirm prints a yes/no prompt and reads the answer. Anything other than
// "y" or "yes" (including EOF) is a no.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
