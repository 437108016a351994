package catalog

import "strings"

// PathSeparator joins the segments of a hierarchical category.
const PathSeparator = " > "

// SplitPath splits a category path into trimmed, non-empty segments.
func SplitPath(path string) []string {
	raw := strings.Split(path, ">")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// JoinPath joins segments with PathSeparator.
func JoinPath(segments []string) string {
	return strings.Join(segments, PathSeparator)
}

// PathContains reports whether the requested category path appears as a
// contiguous run of segments inside itemPath, ignoring case.
// An empty request matches every path.
//
//	PathContains("Clothing & Accessories > Footwear > Sneakers", "Clothing & Accessories") == true
//	PathContains("Home & Living > Furniture", "Clothing & Accessories") == false
func PathContains(itemPath, requested string) bool {
	want := lowerAll(SplitPath(requested))
	if len(want) == 0 {
		return true
	}
	have := lowerAll(SplitPath(itemPath))
	for start := 0; start+len(want) <= len(have); start++ {
		match := true
		for j := range want {
			if have[start+j] != want[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// SegmentRuns returns every contiguous run of segments in path, lower-cased and
// joined with PathSeparator. Backends index these so that an exact keyword
// match on a normalized request is equivalent to PathContains.
func SegmentRuns(path string) []string {
	segs := lowerAll(SplitPath(path))
	runs := make([]string, 0, len(segs)*(len(segs)+1)/2)
	for i := range segs {
		for j := i + 1; j <= len(segs); j++ {
			runs = append(runs, JoinPath(segs[i:j]))
		}
	}
	return runs
}

// NormalizePath lower-cases and re-joins a requested path so it can be compared
// with SegmentRuns output.
func NormalizePath(path string) string {
	return JoinPath(lowerAll(SplitPath(path)))
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
