package coordinator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OmarEhab007/dhscanner-orchestrator/internal/domain"
)

func TestStatusKey(t *testing.T) {
	assert.Equal(t, "job_status:abc-123", statusKey("abc-123"))
}

func TestStatusDoc_JSONShape(t *testing.T) {
	body, err := json.Marshal(statusDoc{Status: domain.StatusWaitingForCodegen})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"status":"WaitingForCodegen"}`, string(body))
}

func TestStatusDoc_Unmarshal(t *testing.T) {
	var doc statusDoc
	err := json.Unmarshal([]byte(`{"status":"Finished"}`), &doc)
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, doc.Status)
}
