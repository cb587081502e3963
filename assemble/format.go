package assemble

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// WriteImage writes the program image as prog_size big-endian uint32 words
// (spec.md §6: "Program image on the wire").
func WriteImage(w io.Writer, image []uint32) error {
	buf := make([]byte, 4*len(image))
	for i, word := range image {
		binary.BigEndian.PutUint32(buf[i*4:], word)
	}
	_, err := w.Write(buf)
	return err
}

// FormatListing renders one line per instruction: a zero-padded four-digit
// decimal address, a tab, and the zero-padded eight-digit uppercase hex
// encoding (spec.md §6: "Formatted listing").
func FormatListing(image []uint32) string {
	var sb strings.Builder
	for i, word := range image {
		fmt.Fprintf(&sb, "%04d\t%08X\n", i, word)
	}
	return sb.String()
}
