package render

import (
	"fmt"
	"strings"
)

// Region markers are literal tokens embedded in target files, one per line:
//
//	// apiforge:begin routes
//	// apiforge:end routes
//
// The comment leader around the token is free-form, so the same markers work
// in Go, Markdown, TOML, and anything else line-oriented. The merger replaces
// only the lines strictly between the two marker lines; everything else in
// the file is preserved byte for byte.
const (
	beginToken = "apiforge:begin "
	endToken   = "apiforge:end "
)

// ErrNoRegion reports a merge target that lacks the expected markers. Callers
// downgrade it to a per-file Skip rather than touching the file.
type ErrNoRegion struct {
	Region string
}

func (e *ErrNoRegion) Error() string {
	return fmt.Sprintf("no markers for region %q", e.Region)
}

// Merge splices content between the region's markers. It returns the merged
// bytes and whether they differ from the input; re-merging identical content
// reports changed=false, which is what keeps repeated generation idempotent.
func Merge(existing []byte, region, content string) ([]byte, bool, error) {
	text := string(existing)

	_, beginEnd, ok := findMarker(text, beginToken, region, 0)
	if !ok {
		return nil, false, &ErrNoRegion{Region: region}
	}
	endLine, _, ok := findMarker(text, endToken, region, beginEnd)
	if !ok {
		return nil, false, &ErrNoRegion{Region: region}
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}

	merged := text[:beginEnd] + content + text[endLine:]
	return []byte(merged), merged != text, nil
}

// findMarker locates the marker line for a region at or after offset. It
// returns the offsets of the line start and of the first byte past the line's
// newline. The region name must end at a word boundary so "routes" never
// matches "routes2".
func findMarker(text, token, region string, offset int) (lineStart, lineEnd int, ok bool) {
	needle := token + region
	for search := offset; search < len(text); {
		i := strings.Index(text[search:], needle)
		if i < 0 {
			return 0, 0, false
		}
		i += search
		after := i + len(needle)
		if after < len(text) && isWordByte(text[after]) {
			search = after
			continue
		}
		start := strings.LastIndexByte(text[:i], '\n') + 1
		end := strings.IndexByte(text[i:], '\n')
		if end < 0 {
			return start, len(text), true
		}
		return start, i + end + 1, true
	}
	return 0, 0, false
}

func isWordByte(b byte) bool {
	return b == '_' || b == '-' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
