package adapter

import "strings"

// TextLimit stays below Telegram's 4096 character message limit.
const TextLimit = 4000

// SplitText cuts s into chunks of at most limit runes, preferring newline
// boundaries that do not leave a chunk shorter than a third of the limit.
func SplitText(s string, limit int) []string {
	if limit <= 0 {
		limit = TextLimit
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return []string{s}
	}

	var out []string
	for start := 0; start < len(rs); {
		end := min(start+limit, len(rs))
		if end < len(rs) {
			for i := end - 1; i-start >= limit/3; i-- {
				if rs[i] == '\n' {
					end = i + 1
					break
				}
			}
		}
		out = append(out, strings.TrimRight(string(rs[start:end]), "\n"))
		start = end
		for start < len(rs) && rs[start] == '\n' {
			start++
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
