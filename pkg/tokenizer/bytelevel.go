package tokenizer

// byteToRune is the canonical GPT-2 byte-to-visible-unicode table.
// Printable bytes in [33,126], [161,172] and [174,255] map to their own
// code point; the remaining bytes get a dense allocation starting at 256,
// in ascending byte order.
var byteToRune [256]rune

func init() {
	printable := func(b int) bool {
		return (b >= 33 && b <= 126) || (b >= 161 && b <= 172) || (b >= 174 && b <= 255)
	}
	next := rune(256)
	for b := 0; b < 256; b++ {
		if printable(b) {
			byteToRune[b] = rune(b)
			continue
		}
		byteToRune[b] = next
		next++
	}
}

// visibleBytes maps every UTF-8 byte of s through the byte-level table.
func visibleBytes(s string) string {
	out := make([]rune, 0, len(s))
	for i := 0; i < len(s); i++ {
		out = append(out, byteToRune[s[i]])
	}
	return string(out)
}
