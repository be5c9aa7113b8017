package proxy

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"
)

// parseBody interprets an upstream body. A JSON body is returned as is;
// anything else becomes {"raw": <first limit characters>}. An empty body
// yields nil.
func parseBody(text []byte, limit int) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(text)
	if len(trimmed) == 0 {
		return nil, true
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed), true
	}

	raw, _ := json.Marshal(map[string]string{"raw": truncate(string(text), limit)})
	return raw, false
}

// truncate keeps the first limit runes of s.
func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// objectOf decodes raw as a JSON object, or returns nil.
func objectOf(raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// messageOf extracts a non-empty "message" (or string "error") from a JSON object body.
func messageOf(raw json.RawMessage) string {
	obj := objectOf(raw)
	if obj == nil {
		return ""
	}

	for _, key := range []string{"message", "error"} {
		var msg string
		if v, ok := obj[key]; ok && json.Unmarshal(v, &msg) == nil && msg != "" {
			return msg
		}
	}
	return ""
}

// unwrap locates the payload of a successful body: the first present,
// non-null body.data.<key> or body.<key> for each key, then body.data,
// then the whole body.
func unwrap(raw json.RawMessage, keys []string) json.RawMessage {
	obj := objectOf(raw)
	if obj == nil {
		return raw
	}

	data, hasData := obj["data"]
	inner := objectOf(data)

	for _, key := range keys {
		if v, ok := inner[key]; ok && !isNull(v) {
			return v
		}
		if v, ok := obj[key]; ok && !isNull(v) {
			return v
		}
	}

	if hasData && !isNull(data) {
		return data
	}
	return raw
}
