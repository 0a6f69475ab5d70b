package step

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// decodeLegacy parses a legacy serialized column into a JSON-compatible tree. Tags on
// mappings and sequences (e.g. !ruby/hash:...) are ignored. Plain scalars written as
// symbols (":name") lose their colon, as map keys and as values.
func decodeLegacy(text string) (interface{}, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, err
	}
	return legacyNode(&doc)
}

func legacyNode(n *yaml.Node) (interface{}, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return legacyNode(n.Content[0])
	case yaml.AliasNode:
		return legacyNode(n.Alias)
	case yaml.MappingNode:
		out := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, err := legacyNode(n.Content[i])
			if err != nil {
				return nil, err
			}
			value, err := legacyNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[stringify(key)] = value
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]interface{}, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := legacyNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		return legacyScalar(n)
	}
	return nil, fmt.Errorf("unsupported YAML node kind %d", n.Kind)
}

func legacyScalar(n *yaml.Node) (interface{}, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!int", "!!float":
		// Numbers keep their source text, so 1.0 stays 1.0.
		if isJSONNumber(n.Value) {
			return json.Number(n.Value), nil
		}
		var v interface{}
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	case "!!bool":
		var v interface{}
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	if n.Style == 0 && len(n.Value) > 1 && strings.HasPrefix(n.Value, ":") {
		return n.Value[1:], nil
	}
	return n.Value, nil
}

// normalizeVariables stringifies the key and value of every variable entry.
func normalizeVariables(v interface{}) []interface{} {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]interface{}, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]interface{})
		if !ok {
			out = append(out, item)
			continue
		}
		normalized := make(map[string]interface{}, len(entry))
		for k, val := range entry {
			normalized[strings.TrimPrefix(k, ":")] = val
		}
		for _, field := range []string{"key", "value"} {
			if val, present := normalized[field]; present {
				normalized[field] = stringify(val)
			}
		}
		out = append(out, normalized)
	}
	return out
}

// isJSONNumber reports whether text is a JSON number literal. YAML forms such as
// 0x1F, .5 or .inf are not.
func isJSONNumber(text string) bool {
	if text == "" || !(text[0] == '-' || (text[0] >= '0' && text[0] <= '9')) {
		return false
	}
	var n json.Number
	return json.Unmarshal([]byte(text), &n) == nil
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
