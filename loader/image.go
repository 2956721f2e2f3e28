// Package loader parses E20 program images into memory words.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/e20arch/e20sim/emu"
)

// lineRe matches one memory word assignment, either binary or hex:
//
//	ram[12] = 16'b0010000010000001;
//	ram[12] = 16'h2081;
//
// Trailing text after the semicolon (assembly comments) is ignored.
var lineRe = regexp.MustCompile(`^ram\[(\d+)\] = (\d+)'([bh])([0-9a-fA-F]+);.*$`)

// wordWidth is the only supported word width in image files.
const wordWidth = 16

// Parse reads a program image from r. Addresses must start at 0 and
// increase by exactly 1 per line. Any unparseable line, address gap,
// or out-of-range address is an error.
func Parse(r io.Reader) ([]uint16, error) {
	var words []uint16
	expectedAddr := uint64(0)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("can't parse line: %q", line)
		}

		addr, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("can't parse address in line: %q", line)
		}

		width, err := strconv.ParseUint(m[2], 10, 64)
		if err != nil || width != wordWidth {
			return nil, fmt.Errorf("unsupported word width %q in line: %q", m[2], line)
		}

		base := 2
		if m[3] == "h" {
			base = 16
		}
		value, err := strconv.ParseUint(m[4], base, wordWidth)
		if err != nil {
			return nil, fmt.Errorf("can't parse value in line: %q", line)
		}

		if addr != expectedAddr {
			return nil, fmt.Errorf("memory addresses encountered out of sequence: %d", addr)
		}
		if addr >= emu.MemSize {
			return nil, fmt.Errorf("program too big for memory")
		}

		expectedAddr++
		words = append(words, uint16(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading program image: %w", err)
	}

	return words, nil
}

// LoadFile parses a program image from the file at path.
func LoadFile(path string) ([]uint16, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening program image: %w", err)
	}
	defer f.Close()

	words, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return words, nil
}
