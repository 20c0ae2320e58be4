package settings

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RunSetup asks for each setting on w, reading answers from r. An empty
// answer keeps the value from existing. Invalid numbers are asked again.
func RunSetup(r io.Reader, w io.Writer, existing Settings) (Settings, error) {
	br := bufio.NewReader(r)

	ask := func(prompt, defaultVal string) (string, error) {
		fmt.Fprintf(w, "%s [%s]: ", prompt, defaultVal)
		line, err := br.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askMinutes := func(prompt string, defaultVal int) (int, error) {
		for {
			ans, err := ask(prompt, strconv.Itoa(defaultVal))
			if err != nil {
				return 0, err
			}
			n, err := strconv.Atoi(ans)
			if err == nil && n > 0 {
				return n, nil
			}
			fmt.Fprintf(w, "  Please enter a whole number greater than zero.\n")
		}
	}

	askBool := func(prompt string, defaultVal bool) (bool, error) {
		def := "n"
		if defaultVal {
			def = "y"
		}
		ans, err := ask(prompt+" (y/n)", def)
		if err != nil {
			return false, err
		}
		ans = strings.ToLower(ans)
		return ans == "y" || ans == "yes", nil
	}

	s := existing

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(w, "  │        pomo: timer setup        │")
	fmt.Fprintln(w, "  └─────────────────────────────────┘")
	fmt.Fprintln(w)

	var err error
	if s.WorkMinutes, err = askMinutes("  Focus length in minutes", s.WorkMinutes); err != nil {
		return existing, err
	}
	if s.ShortBreakMinutes, err = askMinutes("  Short break in minutes", s.ShortBreakMinutes); err != nil {
		return existing, err
	}
	if s.LongBreakMinutes, err = askMinutes("  Long break in minutes", s.LongBreakMinutes); err != nil {
		return existing, err
	}
	if s.LongBreakFrequency, err = askMinutes("  Focus intervals before a long break", s.LongBreakFrequency); err != nil {
		return existing, err
	}
	if s.BreakOvertimeEnabled, err = askBool("  Keep counting after a break ends (overtime)", s.BreakOvertimeEnabled); err != nil {
		return existing, err
	}

	fmt.Fprintln(w)
	return s, nil
}
