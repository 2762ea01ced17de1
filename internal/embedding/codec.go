package embedding

import "encoding/json"

func encodeVector(vec []float32) (json.RawMessage, bool) {
	raw, err := json.Marshal(vec)
	if err != nil {
		return nil, false
	}
	return raw, true
}

func decodeVector(raw json.RawMessage) ([]float32, bool) {
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil, false
	}
	return vec, true
}
