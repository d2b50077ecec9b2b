package fingerprint

// tokenize normalizes content into a token stream: identifier runs are kept
// case-preserved, string and numeric literal values are replaced by category
// markers, whitespace is dropped and every other symbol becomes a single
// one-byte token. One forward pass, linear in content length.
func tokenize(content string) []string {
	tokens := make([]string, 0, len(content)/4)

	for i := 0; i < len(content); {
		c := content[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isIdentByte(c):
			start := i
			for i < len(content) && isIdentOrDigitByte(content[i]) {
				i++
			}
			tokens = append(tokens, content[start:i])
		case c >= '0' && c <= '9':
			for i < len(content) && isNumberByte(content[i]) {
				i++
			}
			tokens = append(tokens, numberMarker)
		case c == '\'' || c == '"' || c == '`':
			i = skipStringLiteral(content, i)
			tokens = append(tokens, stringMarker)
		default:
			tokens = append(tokens, content[i:i+1])
			i++
		}
	}
	return tokens
}

// skipStringLiteral advances past a quoted literal starting at index start,
// honoring backslash escapes. Unterminated literals run to end of content.
func skipStringLiteral(content string, start int) int {
	quote := content[start]
	i := start + 1
	for i < len(content) {
		switch content[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1
		default:
			i++
		}
	}
	return i
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentOrDigitByte(c byte) bool {
	return isIdentByte(c) || (c >= '0' && c <= '9')
}

func isNumberByte(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == 'x' || c == 'X' ||
		(c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
