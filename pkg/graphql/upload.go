package graphql

import (
	"encoding/json"
	"strings"

	"github.com/mockwire/mockwire/pkg/request"
)

// parseUploadPayload handles the multipart file-upload request shape:
// an "operations" form field holding a JSON document with query and
// variables, and an optional "map" field associating upload field names
// with dot-separated variable paths.
func parseUploadPayload(req *request.Request) (string, map[string]any, string, bool) {
	form, ok := req.Multipart()
	if !ok {
		return "", nil, "", false
	}

	rawOps, ok := form.Fields["operations"]
	if !ok {
		return "", nil, "", false
	}

	var ops struct {
		Query         string         `json:"query"`
		Variables     map[string]any `json:"variables"`
		OperationName string         `json:"operationName"`
	}
	if err := json.Unmarshal([]byte(rawOps), &ops); err != nil || ops.Query == "" {
		return "", nil, "", false
	}

	vars := ops.Variables
	if vars == nil {
		vars = map[string]any{}
	}

	if rawMap, exists := form.Fields["map"]; exists && rawMap != "" {
		var uploadMap map[string][]string
		if err := json.Unmarshal([]byte(rawMap), &uploadMap); err != nil {
			return "", nil, "", false
		}
		if !injectUploads(vars, uploadMap, form.Files) {
			return "", nil, "", false
		}
	}

	return ops.Query, vars, ops.OperationName, true
}

// injectUploads writes each uploaded file into the variables tree at
// every dot path listed for its field. The whole injection fails when a
// mapped upload field is missing from the body or a path cannot be
// traversed.
func injectUploads(vars map[string]any, uploadMap map[string][]string, files map[string]request.File) bool {
	for field, paths := range uploadMap {
		file, ok := files[field]
		if !ok {
			return false
		}
		for _, path := range paths {
			if !setAtPath(vars, path, file) {
				return false
			}
		}
	}
	return true
}

// setAtPath replaces the leaf value at a dot-separated path. Every
// non-leaf step must already exist as an object; a missing or non-object
// intermediate is a typed failure, not a silent write.
func setAtPath(tree map[string]any, path string, value any) bool {
	if path == "" {
		return false
	}
	segments := strings.Split(path, ".")
	node := tree
	for _, seg := range segments[:len(segments)-1] {
		next, ok := node[seg].(map[string]any)
		if !ok {
			return false
		}
		node = next
	}
	node[segments[len(segments)-1]] = value
	return true
}
