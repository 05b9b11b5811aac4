package resilientgraphql

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeTree(t *testing.T, body string) map[string]any {
	t.Helper()
	var tree map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &tree))
	return tree
}

const variantsPage = `{"data":{"product":{"title":"Shirt","variants":{
	"edges":[{"node":{"id":"1"}}],
	"pageInfo":{"hasNextPage":true,"endCursor":"abc","hasPreviousPage":false,"startCursor":"aaa"}}}}}`

func TestTreeSearchFindsNestedPageInfo(t *testing.T) {
	pi, err := DefaultTreeSearch().locate(decodeTree(t, variantsPage), Forward)
	require.NoError(t, err)
	cursor, ok := extractCursor(pi, Forward)
	require.True(t, ok)
	assert.Equal(t, "abc", cursor)
}

func TestTreeSearchHonoursDirection(t *testing.T) {
	pi, err := DefaultTreeSearch().locate(decodeTree(t, variantsPage), Backward)
	require.NoError(t, err)
	assert.Nil(t, pi)
	_, ok := extractCursor(pi, Backward)
	assert.False(t, ok)
}

func TestTreeSearchOrder(t *testing.T) {
	body := `{"data":{
		"b":{"pageInfo":{"hasNextPage":true,"endCursor":"from-b"}},
		"a":[{"pageInfo":{"hasNextPage":true,"endCursor":"from-list"}}],
		"c":{"pageInfo":{"hasNextPage":true,"endCursor":"from-c"}}}}`

	pi, err := DefaultTreeSearch().locate(decodeTree(t, body), Forward)
	require.NoError(t, err)
	cursor, _ := extractCursor(pi, Forward)
	assert.Equal(t, "from-b", cursor, "objects are visited before lists, keys in sorted order")
}

func TestTreeSearchSkipsFalseFlags(t *testing.T) {
	body := `{"data":{
		"a":{"pageInfo":{"hasNextPage":false,"endCursor":"done"}},
		"z":{"pageInfo":{"hasNextPage":true,"endCursor":"more"}}}}`

	pi, err := DefaultTreeSearch().locate(decodeTree(t, body), Forward)
	require.NoError(t, err)
	cursor, _ := extractCursor(pi, Forward)
	assert.Equal(t, "more", cursor)
}

func TestExplicitPathNormalisation(t *testing.T) {
	tree := decodeTree(t, variantsPage)
	for _, keys := range [][]string{
		{"product", "variants"},
		{"product", "variants", "pageInfo"},
		{"data", "product", "variants"},
		{"data", "product", "variants", "pageInfo"},
	} {
		pi, err := ExplicitPath(keys...).locate(tree, Forward)
		require.NoError(t, err, keys)
		cursor, ok := extractCursor(pi, Forward)
		assert.True(t, ok, keys)
		assert.Equal(t, "abc", cursor, keys)
	}
}

func TestExplicitPathListIndex(t *testing.T) {
	body := `{"data":{"shops":[{"orders":{"pageInfo":{"hasNextPage":true,"endCursor":"o1"}}}]}}`
	pi, err := ExplicitPath("shops", "0", "orders").locate(decodeTree(t, body), Forward)
	require.NoError(t, err)
	cursor, _ := extractCursor(pi, Forward)
	assert.Equal(t, "o1", cursor)

	_, err = ExplicitPath("shops", "3", "orders").locate(decodeTree(t, body), Forward)
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)
}

func TestExplicitPathMismatch(t *testing.T) {
	_, err := ExplicitPath("product", "variants", "edges", "BOGUS").locate(decodeTree(t, variantsPage), Forward)
	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Contains(t, err.Error(), `["product","variants","edges","BOGUS"]`)
}

func TestExplicitPathMissingPageInfo(t *testing.T) {
	pi, err := ExplicitPath("product").locate(decodeTree(t, variantsPage), Forward)
	require.NoError(t, err)
	assert.Nil(t, pi)
}

func TestCustomExtractor(t *testing.T) {
	loc := CustomExtractor(func(tree map[string]any) map[string]any {
		return map[string]any{"hasNextPage": true, "endCursor": "custom"}
	})
	pi, err := loc.locate(decodeTree(t, `{"data":{}}`), Forward)
	require.NoError(t, err)
	cursor, _ := extractCursor(pi, Forward)
	assert.Equal(t, "custom", cursor)

	_, err = CustomExtractor(nil).locate(nil, Forward)
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)
}

func TestExtractCursorNeedsFlagAndCursor(t *testing.T) {
	_, ok := extractCursor(map[string]any{"hasNextPage": true}, Forward)
	assert.False(t, ok)
	_, ok = extractCursor(map[string]any{"hasNextPage": false, "endCursor": "x"}, Forward)
	assert.False(t, ok)
	c, ok := extractCursor(map[string]any{"hasPreviousPage": true, "startCursor": "s"}, Backward)
	assert.True(t, ok)
	assert.Equal(t, "s", c)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("before")
	require.NoError(t, err)
	assert.Equal(t, Backward, d)
	assert.Equal(t, "before", d.DefaultVariable())

	d, err = ParseDirection("forward")
	require.NoError(t, err)
	assert.Equal(t, "after", d.DefaultVariable())

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestDeclaresVariable(t *testing.T) {
	assert.True(t, declaresVariable(`query($after: String) { x }`, "after"))
	assert.True(t, declaresVariable(`query($after : String) { x }`, "after"))
	assert.False(t, declaresVariable(`query($afterX: String) { x }`, "after"))
	assert.False(t, declaresVariable(`query { x(after: "y") }`, "after"))
}

func TestExplicitPathNullConnection(t *testing.T) {
	tree := decodeTree(t, `{"data":{"product":null}}`)
	pi, err := ExplicitPath("product", "variants").locate(tree, Forward)
	require.NoError(t, err)
	assert.Nil(t, pi)

	tree = decodeTree(t, `{"data":{"product":{"variants":null}}}`)
	pi, err = ExplicitPath("product", "variants").locate(tree, Forward)
	require.NoError(t, err)
	assert.Nil(t, pi)
}

func TestExplicitPathUnknownKeyAndScalar(t *testing.T) {
	var argErr *ArgumentError

	_, err := ExplicitPath("prodcut", "variants").locate(decodeTree(t, variantsPage), Forward)
	require.ErrorAs(t, err, &argErr)
	assert.Contains(t, err.Error(), `"prodcut"`)

	_, err = ExplicitPath("product", "title", "variants").locate(decodeTree(t, variantsPage), Forward)
	require.ErrorAs(t, err, &argErr)
	assert.Contains(t, err.Error(), `string "Shirt"`)
}

// nest wraps leaf in depth single-key objects.
func nest(depth int, leaf map[string]any) map[string]any {
	node := leaf
	for i := 0; i < depth; i++ {
		node = map[string]any{"n": node}
	}
	return node
}

func TestTreeSearchDepthCap(t *testing.T) {
	pageInfo := map[string]any{"pageInfo": map[string]any{"hasNextPage": true, "endCursor": "deep"}}

	pi, err := DefaultTreeSearch().locate(map[string]any{"data": nest(10, pageInfo)}, Forward)
	require.NoError(t, err)
	cursor, ok := extractCursor(pi, Forward)
	require.True(t, ok)
	assert.Equal(t, "deep", cursor)

	pi, err = DefaultTreeSearch().locate(map[string]any{"data": nest(maxSearchDepth+6, pageInfo)}, Forward)
	require.NoError(t, err)
	assert.Nil(t, pi)
}

func TestTreeSearchDeeplyNestedLists(t *testing.T) {
	var node any = map[string]any{"hasNextPage": true, "endCursor": "buried"}
	for i := 0; i < 5000; i++ {
		node = []any{node}
	}

	pi, err := DefaultTreeSearch().locate(map[string]any{"data": node}, Forward)
	require.NoError(t, err)
	assert.Nil(t, pi)
}

func TestTreeSearchSkipsFlagWithoutCursor(t *testing.T) {
	body := `{"data":{
		"a":{"hasNextPage":true},
		"b":{"pageInfo":{"hasNextPage":true,"endCursor":"real"}}}}`

	pi, err := DefaultTreeSearch().locate(decodeTree(t, body), Forward)
	require.NoError(t, err)
	cursor, ok := extractCursor(pi, Forward)
	require.True(t, ok)
	assert.Equal(t, "real", cursor)
}
