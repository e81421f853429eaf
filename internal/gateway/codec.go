package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TransportJSON    = "json"
	TransportMsgpack = "msgpack"
)

// codec encodes gateway request bodies and decodes responses.
type codec interface {
	ContentType() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

func (jsonCodec) ContentType() string                { return "application/json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

type msgpackCodec struct{}

func (msgpackCodec) ContentType() string                { return "application/msgpack" }
func (msgpackCodec) Marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (msgpackCodec) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }

func codecFor(transport string) (codec, error) {
	switch strings.ToLower(strings.TrimSpace(transport)) {
	case "", TransportJSON:
		return jsonCodec{}, nil
	case TransportMsgpack:
		return msgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown gateway transport %q", transport)
	}
}
