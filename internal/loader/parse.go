package loader

import (
	"encoding/json"
	"os"

	"signvec/internal/models"
)

type recordFile struct {
	Vector       []float32    `json:"vector"`
	Label        *string      `json:"label"`
	File         *string      `json:"file"`
	Augmentation *string      `json:"augmentation"`
	Frame        *json.Number `json:"frame"`
	Timestamp    *json.Number `json:"timestamp"`
}

// ParseFile reads and parses one vector file. I/O failures are returned as
// they come from the os package; content problems as *MalformedRecordError.
func ParseFile(path string) (models.VectorRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.VectorRecord{}, err
	}
	return ParseRecord(path, data)
}

// ParseRecord parses the JSON body of a vector file. path becomes the record id.
func ParseRecord(path string, data []byte) (models.VectorRecord, error) {
	var raw recordFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.VectorRecord{}, &MalformedRecordError{Path: path, Reason: err.Error(), cause: err}
	}
	if len(raw.Vector) == 0 {
		return models.VectorRecord{}, &MalformedRecordError{Path: path, Reason: `missing or empty "vector"`}
	}
	if raw.Label == nil {
		return models.VectorRecord{}, &MalformedRecordError{Path: path, Reason: `missing "label"`}
	}

	rec := models.VectorRecord{
		ID:           path,
		Vector:       raw.Vector,
		Label:        *raw.Label,
		Augmentation: models.DefaultAugmentation,
		Frame:        raw.Frame,
		Timestamp:    raw.Timestamp,
	}
	if raw.File != nil {
		rec.File = *raw.File
	}
	if raw.Augmentation != nil {
		rec.Augmentation = *raw.Augmentation
	}
	return rec, nil
}
