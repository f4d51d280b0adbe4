package httpgin

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	_ "github.com/sellbook/sellbook/docs"
)

var ginParam = regexp.MustCompile(`:(\w+)`)

func TestSwaggerDocumentsEveryRoute(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Paths       map[string]map[string]json.RawMessage `json:"paths"`
		Definitions map[string]json.RawMessage            `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	h := newHarness(t)
	for _, r := range h.router.Routes() {
		switch r.Path {
		case "/swagger/*any", "/healthz", "/readyz":
			continue
		}
		path := ginParam.ReplaceAllString(r.Path, "{$1}")
		_, ok := doc.Paths[path][strings.ToLower(r.Method)]
		assert.True(t, ok, "%s %s is not documented", r.Method, path)
	}

	for _, ref := range regexp.MustCompile(`#/definitions/([\w.]+)`).FindAllStringSubmatch(raw, -1) {
		assert.Contains(t, doc.Definitions, ref[1])
	}
}
