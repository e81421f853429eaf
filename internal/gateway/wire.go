package gateway

// Wire bodies exchanged with the gateway. Field names are fixed by the
// gateway service; both the JSON and msgpack encodings use them.

type readRequest struct {
	Device string `json:"device" msgpack:"device"`
	Addr   string `json:"addr" msgpack:"addr"`
	Length int    `json:"length" msgpack:"length"`
	IP     string `json:"ip,omitempty" msgpack:"ip,omitempty"`
	Port   int    `json:"port,omitempty" msgpack:"port,omitempty"`
}

type readResponse struct {
	Values  []int  `json:"values" msgpack:"values"`
	Success *bool  `json:"success,omitempty" msgpack:"success,omitempty"`
	Error   string `json:"error,omitempty" msgpack:"error,omitempty"`
}

type batchRequest struct {
	Devices []string `json:"devices" msgpack:"devices"`
	IP      string   `json:"ip,omitempty" msgpack:"ip,omitempty"`
	Port    int      `json:"port,omitempty" msgpack:"port,omitempty"`
}

type batchItem struct {
	Device  string `json:"device" msgpack:"device"`
	Values  []int  `json:"values" msgpack:"values"`
	Success *bool  `json:"success,omitempty" msgpack:"success,omitempty"`
	Error   string `json:"error,omitempty" msgpack:"error,omitempty"`
}

type batchResponse struct {
	Results []batchItem `json:"results" msgpack:"results"`
	Error   string      `json:"error,omitempty" msgpack:"error,omitempty"`
}

// succeeded treats a missing success flag as success unless an error is set.
func succeeded(flag *bool, errText string) bool {
	if flag != nil {
		return *flag
	}
	return errText == ""
}
