// Package rpcjson registers a JSON codec with gRPC so services can be
// described with plain Go structs instead of generated protobuf types.
// Clients select it with grpc.CallContentSubtype(rpcjson.Name).
package rpcjson

import (
	jsoniter "github.com/json-iterator/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const Name = "json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (Codec) Name() string {
	return Name
}

// CallOption makes a client call use this codec.
func CallOption() grpc.CallOption {
	return grpc.CallContentSubtype(Name)
}

func init() {
	encoding.RegisterCodec(Codec{})
}
