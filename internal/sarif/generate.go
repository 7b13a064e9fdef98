package sarif

// pathDescription is the fixed finding description this pipeline reports
// for every satisfied dataflow query.
const pathDescription = "owasp top 10"

// GenerateFromResultsContent builds the final report for a job's results
// content blob: Empty if no query was satisfied, otherwise Build over the
// first satisfied query's parsed path.
func GenerateFromResultsContent(content string) Report {
	if !HasSatisfiedQuery(content) {
		return Empty()
	}
	path := ParseProperPath(content)
	if len(path) == 0 {
		return Empty()
	}
	return Build(path, pathDescription)
}
