package drift

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Vectors are persisted as jsonb arrays. These helpers keep the conversion in
// one place so repos and the routing engine trade in plain []float32.

func VectorJSON(v []float32) datatypes.JSON {
	if len(v) == 0 {
		return datatypes.JSON("[]")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(b)
}

func VectorFromJSON(raw datatypes.JSON) []float32 {
	if len(raw) == 0 {
		return nil
	}
	var v []float32
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
