package models

import "encoding/json"

// DeviceDataType is a best-effort classification of what a word device holds.
type DeviceDataType int

const (
	DataTypeUnknown DeviceDataType = iota
	DataTypeBit
	DataTypeWord
	DataTypeDoubleWord
	DataTypeFloat
)

var dataTypeNames = map[DeviceDataType]string{
	DataTypeUnknown:    "Unknown",
	DataTypeBit:        "Bit",
	DataTypeWord:       "Word",
	DataTypeDoubleWord: "DoubleWord",
	DataTypeFloat:      "Float",
}

func (t DeviceDataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return dataTypeNames[DataTypeUnknown]
}

// MarshalJSON encodes the type by name.
func (t DeviceDataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}
