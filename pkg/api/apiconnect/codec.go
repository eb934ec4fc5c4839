// Package apiconnect wires the splitledger.v1 services to Connect.
//
// The messages in package api are plain structs, so handlers and clients
// exchange them with a JSON codec instead of protobuf.
package apiconnect

import (
	"context"
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"
)

// CodecName is the Connect codec name; requests use Content-Type application/json.
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Name() string { return CodecName }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// WithJSON returns the option that makes handlers and clients speak JSON.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{WithJSON()}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{WithJSON()}, opts...)
}

// handle mounts a unary procedure on mux.
func handle[Req, Res any](mux *http.ServeMux, procedure string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts []connect.HandlerOption) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}
