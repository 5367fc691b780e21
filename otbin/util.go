package otbin

import (
	"fmt"
	"strings"
)

// Checksum computes the TrueType table checksum over b: the sum of all
// big-endian uint32 words modulo 2^32, with a trailing partial word
// padded with zero bytes.
func Checksum(b []byte) uint32 {
	var sum uint32
	n := len(b) &^ 3
	for i := 0; i < n; i += 4 {
		sum += uint32(b[i])<<24 | uint32(b[i+1])<<16 | uint32(b[i+2])<<8 | uint32(b[i+3])
	}
	if n < len(b) {
		var last uint32
		for i := n; i < n+4; i++ {
			last <<= 8
			if i < len(b) {
				last |= uint32(b[i])
			}
		}
		sum += last
	}
	return sum
}

// Hexdump renders b in the classic offset/hex/ASCII layout, 16 bytes
// per line. Meant for test failure output and debugging traces.
func Hexdump(b []byte) string {
	var sb strings.Builder
	for base := 0; base < len(b); base += 16 {
		fmt.Fprintf(&sb, "%8d |", base)
		for i := base; i < base+16; i++ {
			if i%2 == 0 {
				sb.WriteByte(' ')
			}
			if i < len(b) {
				fmt.Fprintf(&sb, "%02X", b[i])
			} else {
				sb.WriteString("  ")
			}
		}
		sb.WriteString(" |")
		for i := base; i < base+16 && i < len(b); i++ {
			if b[i] >= 0x20 && b[i] < 0x7F {
				sb.WriteByte(b[i])
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}
	return sb.String()
}
