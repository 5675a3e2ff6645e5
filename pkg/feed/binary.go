package feed

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/luxfi/chronos/pkg/lx"
)

// EncodeTradeFrame serialises a trade as a protobuf-encoded
// google.protobuf.Struct, for subscribers that want a compact binary
// frame instead of the JSON envelope used by BroadcastTrade. This is
// an optional alternative wire format; the hub itself always speaks
// JSON over the WebSocket text frames.
func EncodeTradeFrame(symbol string, t lx.Trade) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"symbol":         symbol,
		"aggressor_id":   float64(t.AggressorID),
		"resting_id":     float64(t.RestingID),
		"price":          float64(t.Price),
		"qty":            float64(t.Qty),
		"aggressor_side": t.AggressorSide.String(),
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// DecodeTradeFrame reverses EncodeTradeFrame.
func DecodeTradeFrame(data []byte) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}
