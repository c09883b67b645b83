package console

// Split breaks an input line into a command name and its arguments.
//
// Arguments are separated by whitespace, except that a JSON object, array
// or string is kept as a single token even when it contains spaces:
//
//	store {"a": 1} ["x", "y"]   ->   "store", [`{"a": 1}`, `["x", "y"]`]
//
// Unbalanced brackets never fail the split; the remainder of the line
// becomes the last token so the JSON parser can report it.
func Split(line string) (string, []string, error) {
	tokens := tokenize(line)
	if len(tokens) == 0 {
		return "", nil, ErrEmptyCommand
	}
	return tokens[0], tokens[1:], nil
}

func tokenize(s string) []string {
	var tokens []string

	i := 0
	for i < len(s) {
		if isSpace(s[i]) {
			i++
			continue
		}

		start := i
		depth := 0
		inString, escaped := false, false

	scan:
		for ; i < len(s); i++ {
			c := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}

			switch c {
			case '"':
				inString = true
			case '{', '[':
				depth++
			case '}', ']':
				if depth > 0 {
					depth--
				}
			default:
				if depth == 0 && isSpace(c) {
					break scan
				}
			}
		}

		tokens = append(tokens, s[start:i])
	}

	return tokens
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
