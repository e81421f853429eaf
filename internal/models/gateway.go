package models

// DeviceReadRequest asks the gateway for one device spec.
type DeviceReadRequest struct {
	Spec      string `json:"spec" validate:"required"`
	Host      string `json:"host,omitempty" validate:"omitempty,hostname|ip"`
	Port      int    `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	TimeoutMs int    `json:"timeoutMs,omitempty" validate:"omitempty,min=0"`
	Transport string `json:"transport,omitempty" validate:"omitempty,oneof=json msgpack"`
}

// DeviceReadResult is always returned, never raised: failures set Success=false.
type DeviceReadResult struct {
	Label   string `json:"label" msgpack:"label"`
	Values  []int  `json:"values" msgpack:"values"`
	Success bool   `json:"success" msgpack:"success"`
	Error   string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// BatchReadRequest asks the gateway for several specs in one round trip.
type BatchReadRequest struct {
	Specs     []string `json:"specs" validate:"required,min=1,dive,required"`
	Host      string   `json:"host,omitempty" validate:"omitempty,hostname|ip"`
	Port      int      `json:"port,omitempty" validate:"omitempty,min=1,max=65535"`
	TimeoutMs int      `json:"timeoutMs,omitempty" validate:"omitempty,min=0"`
	Transport string   `json:"transport,omitempty" validate:"omitempty,oneof=json msgpack"`
}

// BatchReadResult holds one independent result per requested spec.
type BatchReadResult struct {
	Results []DeviceReadResult `json:"results"`
	Success bool               `json:"success"`
	Error   string             `json:"error,omitempty"`
}
