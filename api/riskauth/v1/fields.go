package riskauthv1

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// GetString returns the string field key of s, or "" when missing or of another kind.
func GetString(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// GetInt returns the numeric field key of s truncated to int64, or 0.
func GetInt(s *structpb.Struct, key string) int64 {
	return int64(s.GetFields()[key].GetNumberValue())
}

// GetBool returns the bool field key of s, or false.
func GetBool(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}

// GetStruct returns the nested object key of s, or nil.
func GetStruct(s *structpb.Struct, key string) *structpb.Struct {
	return s.GetFields()[key].GetStructValue()
}

// GetList returns the list field key of s, or nil.
func GetList(s *structpb.Struct, key string) []*structpb.Value {
	return s.GetFields()[key].GetListValue().GetValues()
}
