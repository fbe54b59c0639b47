package probe

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject finds the JSON object inside command output that may be
// decorated with banners or other preamble text. Candidates all end at the
// last "}" of the output and are tried from the last "{" backwards, so the
// *last* well-formed object wins; the final candidate tried is the slice
// from the first "{" to the last "}".
func ExtractJSONObject(output string) (json.RawMessage, error) {
	closeIdx := strings.LastIndex(output, "}")
	if closeIdx == -1 {
		return nil, fmt.Errorf("no JSON object in output")
	}

	for openIdx := strings.LastIndex(output[:closeIdx], "{"); openIdx != -1; openIdx = strings.LastIndex(output[:openIdx], "{") {
		candidate := output[openIdx : closeIdx+1]
		if isJSONObject(candidate) {
			return json.RawMessage(candidate), nil
		}
	}

	return nil, fmt.Errorf("no JSON object in output")
}

func isJSONObject(candidate string) bool {
	var obj map[string]interface{}
	return json.Unmarshal([]byte(candidate), &obj) == nil
}
