// Package authrpc описывает gRPC-контракт сервиса идентификации
// evofit.auth.v1.AuthService. Сообщения кодируются в JSON через кодек,
// зарегистрированный под content-subtype "json".
package authrpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName content-subtype, под которым зарегистрирован кодек.
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
