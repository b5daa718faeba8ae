package models

import "encoding/json"

// DefaultAugmentation is stored for records that do not name an augmentation.
const DefaultAugmentation = "original"

// VectorRecord is one parsed vector file.
type VectorRecord struct {
	// ID is the source file path. It is not used as the stored point id.
	ID           string
	Vector       []float32
	Label        string
	File         string
	Augmentation string
	Frame        *json.Number
	Timestamp    *json.Number
}

// Payload is the metadata attached to every uploaded point.
type Payload struct {
	Label        string       `json:"label"`
	File         string       `json:"file"`
	Augmentation string       `json:"augmentation"`
	Frame        *json.Number `json:"frame"`
	Timestamp    *json.Number `json:"timestamp"`
}

// Point is a record ready to be written to a collection.
type Point struct {
	ID      uint64
	Vector  []float32
	Payload Payload
}

func (r VectorRecord) Payload() Payload {
	return Payload{
		Label:        r.Label,
		File:         r.File,
		Augmentation: r.Augmentation,
		Frame:        r.Frame,
		Timestamp:    r.Timestamp,
	}
}

// Map flattens the payload into the key/value form sent to the store.
// Absent frame and timestamp values are kept as explicit nils.
func (p Payload) Map() map[string]interface{} {
	m := map[string]interface{}{
		"label":        p.Label,
		"file":         p.File,
		"augmentation": p.Augmentation,
		"frame":        nil,
		"timestamp":    nil,
	}
	if p.Frame != nil {
		m["frame"] = *p.Frame
	}
	if p.Timestamp != nil {
		m["timestamp"] = *p.Timestamp
	}
	return m
}

// CollectionSummary describes a collection as reported by the store.
type CollectionSummary struct {
	Name        string
	VectorSize  uint64
	Distance    string
	PointsCount uint64
	Status      string
}
