package fhir

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// PatchOperation is a single RFC 6902 JSON Patch operation.
type PatchOperation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
	From  string      `json:"from,omitempty"`
}

// ParseJSONPatch decodes a JSON Patch document.
func ParseJSONPatch(data []byte) ([]PatchOperation, error) {
	var ops []PatchOperation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("invalid JSON Patch document: %w", err)
	}
	for i, op := range ops {
		switch op.Op {
		case "add", "remove", "replace", "move", "copy", "test":
		case "":
			return nil, fmt.Errorf("operation %d is missing 'op'", i)
		default:
			return nil, fmt.Errorf("operation %d has unknown op '%s'", i, op.Op)
		}
		if (op.Op == "move" || op.Op == "copy") && op.From == "" {
			return nil, fmt.Errorf("operation %d (%s) is missing 'from'", i, op.Op)
		}
	}
	return ops, nil
}

// ApplyJSONPatch applies ops to a copy of doc and returns the patched copy.
// doc is left untouched even when an operation fails.
func ApplyJSONPatch(doc map[string]interface{}, ops []PatchOperation) (map[string]interface{}, error) {
	var result interface{} = deepCopy(doc)
	for i, op := range ops {
		var err error
		switch op.Op {
		case "add":
			result, err = patchAdd(result, op.Path, deepCopy(op.Value))
		case "remove":
			result, err = patchRemove(result, op.Path)
		case "replace":
			result, err = patchReplace(result, op.Path, deepCopy(op.Value))
		case "move":
			var v interface{}
			if v, err = pointerGet(result, op.From); err == nil {
				if result, err = patchRemove(result, op.From); err == nil {
					result, err = patchAdd(result, op.Path, v)
				}
			}
		case "copy":
			var v interface{}
			if v, err = pointerGet(result, op.From); err == nil {
				result, err = patchAdd(result, op.Path, deepCopy(v))
			}
		case "test":
			err = patchTest(result, op.Path, op.Value)
		default:
			err = fmt.Errorf("unknown op '%s'", op.Op)
		}
		if err != nil {
			return nil, fmt.Errorf("operation %d (%s %s): %w", i, op.Op, op.Path, err)
		}
	}
	out, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("patched document is not an object")
	}
	return out, nil
}

// PatchResource serializes current, applies the patch document and returns
// the patched JSON.
func PatchResource(current Resource, patchDoc []byte) ([]byte, map[string]interface{}, error) {
	ops, err := ParseJSONPatch(patchDoc)
	if err != nil {
		return nil, nil, err
	}
	raw, err := Marshal(current)
	if err != nil {
		return nil, nil, err
	}
	doc, err := DecodeObject(raw)
	if err != nil {
		return nil, nil, err
	}
	patched, err := ApplyJSONPatch(doc, ops)
	if err != nil {
		return nil, nil, err
	}
	body, err := Marshal(patched)
	if err != nil {
		return nil, nil, err
	}
	return body, patched, nil
}

func patchAdd(doc interface{}, path string, value interface{}) (interface{}, error) {
	return pointerUpdate(doc, path, func(parent interface{}, key string) (interface{}, error) {
		switch p := parent.(type) {
		case map[string]interface{}:
			p[key] = value
			return p, nil
		case []interface{}:
			if key == "-" {
				return append(p, value), nil
			}
			idx, err := arrayIndex(key, len(p)+1)
			if err != nil {
				return nil, err
			}
			out := make([]interface{}, 0, len(p)+1)
			out = append(out, p[:idx]...)
			out = append(out, value)
			return append(out, p[idx:]...), nil
		}
		return nil, fmt.Errorf("cannot add to a scalar")
	})
}

func patchRemove(doc interface{}, path string) (interface{}, error) {
	return pointerUpdate(doc, path, func(parent interface{}, key string) (interface{}, error) {
		switch p := parent.(type) {
		case map[string]interface{}:
			if _, ok := p[key]; !ok {
				return nil, fmt.Errorf("path '%s' does not exist", path)
			}
			delete(p, key)
			return p, nil
		case []interface{}:
			idx, err := arrayIndex(key, len(p))
			if err != nil {
				return nil, err
			}
			out := make([]interface{}, 0, len(p)-1)
			out = append(out, p[:idx]...)
			return append(out, p[idx+1:]...), nil
		}
		return nil, fmt.Errorf("cannot remove from a scalar")
	})
}

func patchReplace(doc interface{}, path string, value interface{}) (interface{}, error) {
	return pointerUpdate(doc, path, func(parent interface{}, key string) (interface{}, error) {
		switch p := parent.(type) {
		case map[string]interface{}:
			if _, ok := p[key]; !ok {
				return nil, fmt.Errorf("path '%s' does not exist", path)
			}
			p[key] = value
			return p, nil
		case []interface{}:
			idx, err := arrayIndex(key, len(p))
			if err != nil {
				return nil, err
			}
			p[idx] = value
			return p, nil
		}
		return nil, fmt.Errorf("cannot replace inside a scalar")
	})
}

func patchTest(doc interface{}, path string, expected interface{}) error {
	actual, err := pointerGet(doc, path)
	if err != nil {
		return err
	}
	a, _ := json.Marshal(actual)
	e, _ := json.Marshal(expected)
	if !bytes.Equal(a, e) {
		return fmt.Errorf("test failed: expected %s, found %s", e, a)
	}
	return nil
}

// pointerUpdate walks to the parent of path and replaces it with what leaf
// returns, so slices that grow or shrink are written back to their owner.
func pointerUpdate(doc interface{}, path string, leaf func(parent interface{}, key string) (interface{}, error)) (interface{}, error) {
	tokens, err := splitPointer(path)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("cannot modify the document root")
	}
	return walkUpdate(doc, tokens, leaf)
}

func walkUpdate(node interface{}, tokens []string, leaf func(interface{}, string) (interface{}, error)) (interface{}, error) {
	if len(tokens) == 1 {
		return leaf(node, tokens[0])
	}
	child, err := childOf(node, tokens[0])
	if err != nil {
		return nil, err
	}
	updated, err := walkUpdate(child, tokens[1:], leaf)
	if err != nil {
		return nil, err
	}
	switch n := node.(type) {
	case map[string]interface{}:
		n[tokens[0]] = updated
	case []interface{}:
		idx, _ := strconv.Atoi(tokens[0])
		n[idx] = updated
	}
	return node, nil
}

func pointerGet(doc interface{}, path string) (interface{}, error) {
	tokens, err := splitPointer(path)
	if err != nil {
		return nil, err
	}
	cur := doc
	for _, tok := range tokens {
		if cur, err = childOf(cur, tok); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func childOf(node interface{}, key string) (interface{}, error) {
	switch n := node.(type) {
	case map[string]interface{}:
		v, ok := n[key]
		if !ok {
			return nil, fmt.Errorf("path segment '%s' does not exist", key)
		}
		return v, nil
	case []interface{}:
		idx, err := arrayIndex(key, len(n))
		if err != nil {
			return nil, err
		}
		return n[idx], nil
	}
	return nil, fmt.Errorf("cannot traverse into a scalar at '%s'", key)
}

// arrayIndex parses key as an index in [0, limit).
func arrayIndex(key string, limit int) (int, error) {
	idx, err := strconv.Atoi(key)
	if err != nil || (len(key) > 1 && key[0] == '0') {
		return 0, fmt.Errorf("invalid array index '%s'", key)
	}
	if idx < 0 || idx >= limit {
		return 0, fmt.Errorf("array index %d out of bounds", idx)
	}
	return idx, nil
}

func splitPointer(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("invalid JSON pointer '%s'", path)
	}
	parts := strings.Split(path[1:], "/")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(p, "~1", "/"), "~0", "~")
	}
	return parts, nil
}

func deepCopy(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(vv))
		for k, e := range vv {
			out[k] = deepCopy(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, e := range vv {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}
