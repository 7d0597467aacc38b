package swagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestRegisteredDocIsValidJSON(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Contains(t, doc.Paths, "/grading/classes/{class}/students/{student}/sections/{section}/slots/{slot}")
	assert.Contains(t, doc.Paths["/snapshot"], "post")
}
