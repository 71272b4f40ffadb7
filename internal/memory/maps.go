package memory

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// mapping is one line of a Linux /proc/<pid>/maps listing.
type mapping struct {
	start, end Address
	perms      string
}

func (m mapping) readable() bool {
	return len(m.perms) > 0 && m.perms[0] == 'r'
}

// parseMapsLine parses "start-end perms offset dev inode [path]".
func parseMapsLine(line string) (mapping, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return mapping{}, false
	}
	lo, hi, found := strings.Cut(fields[0], "-")
	if !found {
		return mapping{}, false
	}
	start, err := strconv.ParseUint(lo, 16, 64)
	if err != nil {
		return mapping{}, false
	}
	end, err := strconv.ParseUint(hi, 16, 64)
	if err != nil || end <= start {
		return mapping{}, false
	}
	return mapping{start: Address(start), end: Address(end), perms: fields[1]}, true
}

// readableCoverage reports whether [start, end) is covered by a contiguous
// run of readable mappings. The listing must be sorted by start address, as
// the kernel emits it.
func readableCoverage(listing io.Reader, start, end Address) bool {
	cur := start
	sc := bufio.NewScanner(listing)
	for sc.Scan() {
		m, ok := parseMapsLine(sc.Text())
		if !ok || m.end <= cur {
			continue
		}
		if m.start > cur || !m.readable() {
			return false
		}
		cur = m.end
		if cur >= end {
			return true
		}
	}
	return false
}
