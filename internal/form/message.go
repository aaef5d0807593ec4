package form

import (
	"encoding/json"
	"fmt"
	"strings"
)

const msgRequestFailed = "Fal request failed"

// ErrorMessage turns an error body from the generation endpoint into one
// line for the user. Provider validation detail is spelled out per field.
func ErrorMessage(body []byte) string {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return msgRequestFailed
	}

	obj, _ := raw.(map[string]interface{})

	if details, ok := obj["detail"].([]interface{}); ok {
		parts := make([]string, 0, len(details))
		for _, d := range details {
			parts = append(parts, fmt.Sprintf("%s: %s", detailLoc(d), detailMsg(d)))
		}
		prefix := stringField(obj, "error")
		if prefix == "" {
			prefix = "Validation error"
		}
		return prefix + " - " + strings.Join(parts, " | ")
	}

	if msg := stringField(obj, "error"); msg != "" {
		return msg
	}
	if msg := stringField(obj, "message"); msg != "" {
		return msg
	}
	return string(body)
}

func detailLoc(d interface{}) string {
	m, _ := d.(map[string]interface{})
	switch loc := m["loc"].(type) {
	case []interface{}:
		segs := make([]string, 0, len(loc))
		for _, s := range loc {
			segs = append(segs, fmt.Sprint(s))
		}
		if joined := strings.Join(segs, "."); joined != "" {
			return joined
		}
	case string:
		if loc != "" {
			return loc
		}
	case nil:
	default:
		return fmt.Sprint(loc)
	}
	return "input"
}

func detailMsg(d interface{}) string {
	m, _ := d.(map[string]interface{})
	if msg, ok := m["msg"].(string); ok && msg != "" {
		return msg
	}
	b, _ := json.Marshal(d)
	return string(b)
}

func stringField(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return s
}
