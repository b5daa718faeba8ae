package qdrant

import (
	"encoding/json"
	"fmt"

	"signvec/internal/models"

	"github.com/qdrant/go-client/qdrant"
)

// ToPointStruct converts a point into its wire form with a numeric id.
func ToPointStruct(p models.Point) *qdrant.PointStruct {
	return &qdrant.PointStruct{
		Id: &qdrant.PointId{
			PointIdOptions: &qdrant.PointId_Num{
				Num: p.ID,
			},
		},
		Vectors: &qdrant.Vectors{
			VectorsOptions: &qdrant.Vectors_Vector{
				Vector: &qdrant.Vector{
					Data: p.Vector,
				},
			},
		},
		Payload: MapToPayload(p.Payload.Map()),
	}
}

func PayloadToMap(payload map[string]*qdrant.Value) map[string]interface{} {
	result := make(map[string]interface{})
	for k, v := range payload {
		result[k] = valueToInterface(v)
	}
	return result
}

func valueToInterface(v *qdrant.Value) interface{} {
	if v == nil {
		return nil
	}
	switch val := v.Kind.(type) {
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	default:
		return fmt.Sprintf("%v", v)
	}
}

func MapToPayload(m map[string]interface{}) map[string]*qdrant.Value {
	result := make(map[string]*qdrant.Value)
	for k, v := range m {
		result[k] = interfaceToValue(v)
	}
	return result
}

func interfaceToValue(i interface{}) *qdrant.Value {
	switch v := i.(type) {
	case nil:
		return nullValue()
	case string:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
	case json.Number:
		// Keep integers as integers so frame numbers stay exact.
		if n, err := v.Int64(); err == nil {
			return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: n}}
		}
		if f, err := v.Float64(); err == nil {
			return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: f}}
		}
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v.String()}}
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(v)}}
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: v}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: v}}
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: v}}
	default:
		return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: fmt.Sprintf("%v", v)}}
	}
}

func nullValue() *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_NullValue{NullValue: qdrant.NullValue_NULL_VALUE}}
}
