package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// promptCount asks interactively how many of the loaded records to
// process. Returns 0 when the user cancels.
func promptCount(in io.Reader, out io.Writer, total int) (int, error) {
	reader := bufio.NewReader(in)

	fmt.Fprintf(out, "%d records loaded. How many should be processed?\n", total)
	fmt.Fprintln(out, "  [a] all")
	fmt.Fprintln(out, "  [1] first 10")
	fmt.Fprintln(out, "  [2] first 50")
	fmt.Fprintln(out, "  [n] custom count")
	fmt.Fprintln(out, "  [q] cancel")
	fmt.Fprint(out, "> ")

	choice, err := readLine(reader)
	if err != nil {
		return 0, err
	}

	switch choice {
	case "a", "all":
		return total, nil
	case "1", "10":
		return capCount(10, total), nil
	case "2", "50":
		return capCount(50, total), nil
	case "n":
		fmt.Fprint(out, "count> ")
		raw, err := readLine(reader)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return 0, eris.Errorf("invalid count: %q", raw)
		}
		return capCount(n, total), nil
	case "q", "", "cancel":
		return 0, nil
	default:
		return 0, eris.Errorf("invalid choice: %q", choice)
	}
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", eris.Wrap(err, "read input")
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

func capCount(n, total int) int {
	if n > total {
		return total
	}
	return n
}
