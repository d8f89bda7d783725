package analyzer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("\uFEFF{\"a\":1}"))
	assert.Equal(t, `{"a":1}`, stripFences("  {\"a\":1}  "))
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":{"b":2}}`, extractJSON(`前導文字 {"a":{"b":2}} 後綴`))
	assert.Equal(t, "", extractJSON("沒有大括號"))
	assert.Equal(t, "", extractJSON(`{"未配對": 1`))
}

func TestSanitizeJSONRepairsBareQuotes(t *testing.T) {
	broken := `{"comment": "他說 "很好" 然後離開"}`
	fixed := sanitizeJSON(broken)

	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(fixed), &out))
	assert.Contains(t, out["comment"], "很好")
}

func TestSanitizeJSONLeavesValidInput(t *testing.T) {
	valid := `{"a": "b", "c": ["d", "e"], "n": 3}`
	assert.Equal(t, valid, sanitizeJSON(valid))
}
