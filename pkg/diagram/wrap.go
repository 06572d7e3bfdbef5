package diagram

import "strings"

// wrapLabel breaks text into lines of at most columns characters using
// greedy word wrapping. Words longer than a full line are split hard so a
// single unbroken token cannot exceed the column limit.
func wrapLabel(text string, columns int) []string {
	if columns < 1 {
		columns = 1
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	lines := make([]string, 0, 2)
	current := ""

	flush := func() {
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
	}

	for _, word := range words {
		for len([]rune(word)) > columns {
			flush()

			runes := []rune(word)
			lines = append(lines, string(runes[:columns]))
			word = string(runes[columns:])
		}

		if word == "" {
			continue
		}

		switch {
		case current == "":
			current = word
		case len([]rune(current))+1+len([]rune(word)) <= columns:
			current += " " + word
		default:
			flush()

			current = word
		}
	}

	flush()

	return lines
}

// longestLine returns the rune length of the widest line.
func longestLine(lines []string) int {
	longest := 0

	for _, line := range lines {
		if length := len([]rune(line)); length > longest {
			longest = length
		}
	}

	return longest
}
