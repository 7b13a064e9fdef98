package sarif

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmpty(t *testing.T) {
	report := Empty()
	assert.Equal(t, "2.1.0", report.Version)
	require.Len(t, report.Runs, 1)
	assert.Equal(t, "dhscanner", report.Runs[0].Tool.Driver.Name)
	assert.Empty(t, report.Runs[0].Results)
}

func TestBuild_SingleEdgePath(t *testing.T) {
	path := []Location{
		{Filename: "a.py", LineStart: 1, LineEnd: 1, ColStart: 2, ColEnd: 3},
		{Filename: "b.py", LineStart: 5, LineEnd: 5, ColStart: 6, ColEnd: 7},
	}
	report := Build(path, "owasp top 10")

	require.Len(t, report.Runs, 1)
	require.Len(t, report.Runs[0].Results, 1)
	result := report.Runs[0].Results[0]

	assert.Equal(t, "dataflow", result.RuleID)
	assert.Equal(t, "owasp top 10", result.Message.Text)

	require.Len(t, result.Locations, 1, "only the last edge endpoint is a non-flow location")
	assert.Equal(t, "b.py", result.Locations[0].PhysicalLocation.ArtifactLocation.URI)

	require.Len(t, result.CodeFlows, 1)
	require.Len(t, result.CodeFlows[0].ThreadFlows, 1)
	assert.Len(t, result.CodeFlows[0].ThreadFlows[0].Locations, 2, "codeFlows carries every edge endpoint")
}

func TestReport_MarshalsExpectedShape(t *testing.T) {
	report := Build([]Location{{Filename: "a.py", LineStart: 1, LineEnd: 1, ColStart: 1, ColEnd: 1}}, "owasp top 10")
	body, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "2.1.0", decoded["version"])
}
