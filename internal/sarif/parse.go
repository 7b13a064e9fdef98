package sarif

import (
	"regexp"
	"strconv"
	"strings"
)

// findingPattern matches the query engine's "qN([...]): yes" line. Only the
// first match in the content is used — a results file can in principle
// carry more than one satisfied query, but this pipeline reports the first
// one found, by design.
var findingPattern = regexp.MustCompile(`q(\d+)\(\[(.*?)\]\): yes`)

// edgePattern matches one "(startloc_L_C_endloc_L_C_fname,startloc_L_C_endloc_L_C_fname)"
// edge within a finding's edge list. Each match carries 10 capture groups:
// the first LOC is the edge's start point, the second its end point.
var edgePattern = regexp.MustCompile(
	`\(startloc_(\d+)_(\d+)_endloc_(\d+)_(\d+)_([^,]+),startloc_(\d+)_(\d+)_endloc_(\d+)_(\d+)_([^,]+)\)`,
)

// ParseProperPath extracts the dataflow path from a results-worker content
// blob. It returns nil if no satisfied query is present.
//
// For each edge, its start location is always appended. Only the final
// edge additionally contributes its end location, so the returned path has
// len(edges)+1 locations tracing the full chain.
func ParseProperPath(content string) []Location {
	finding := findingPattern.FindStringSubmatch(content)
	if finding == nil {
		return nil
	}

	edgesBlob := finding[2]
	edges := edgePattern.FindAllStringSubmatch(edgesBlob, -1)

	var locations []Location
	n := len(edges)
	for i, edge := range edges {
		locations = append(locations, Location{
			Filename:  restore(edge[5]),
			LineStart: atoi(edge[1]),
			ColStart:  atoi(edge[2]),
			LineEnd:   atoi(edge[3]),
			ColEnd:    atoi(edge[4]),
		})
		if i == n-1 {
			locations = append(locations, Location{
				Filename:  restore(edge[10]),
				LineStart: atoi(edge[6]),
				ColStart:  atoi(edge[7]),
				LineEnd:   atoi(edge[8]),
				ColEnd:    atoi(edge[9]),
			})
		}
	}
	return locations
}

// HasSatisfiedQuery reports whether content contains at least one "yes"
// query verdict, matching the cheap pre-check the results worker runs
// before bothering to parse the full path.
func HasSatisfiedQuery(content string) bool {
	return strings.Contains(content, ": yes")
}

// restore undoes the placeholder substitutions the query engine applies to
// filenames so they survive being embedded in its comma/paren-delimited
// edge syntax. Each substitution runs over the prior step's result, in
// this exact order, matching the reference restorer's chained replace
// calls rather than a single simultaneous pass.
func restore(filename string) string {
	s := filename
	s = strings.ReplaceAll(s, "_slash_", "/")
	s = strings.ReplaceAll(s, "_dot_", ".")
	s = strings.ReplaceAll(s, "_dash_", "-")
	s = strings.ReplaceAll(s, "_lbracket_", "[")
	s = strings.ReplaceAll(s, "_rbracket_", "]")
	s = strings.ReplaceAll(s, "_lparen_", "(")
	s = strings.ReplaceAll(s, "_rparen_", ")")
	return s
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
