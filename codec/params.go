package codec

import (
	"encoding/json"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var null = json.RawMessage("null")

// Params collects converted values into a positional parameter list.
func Params(values ...json.RawMessage) []json.RawMessage {
	if values == nil {
		return []json.RawMessage{}
	}
	return values
}

// Null is the JSON null value.
func Null() json.RawMessage {
	return null
}

// String wraps s as a JSON string. Address-like strings keep their case. Invalid UTF-8
// cannot travel in JSON, so each bad byte becomes U+FFFD as with json.Marshal.
func String(s string) json.RawMessage {
	// marshaling a string cannot fail
	b, _ := json.Marshal(s)
	return b
}

func Bool(b bool) json.RawMessage {
	return json.RawMessage(strconv.FormatBool(b))
}

// Quantity encodes n the way Ethereum nodes expect numbers: a 0x-prefixed hex string
// without leading zeros.
func Quantity(n uint64) json.RawMessage {
	return quoted(hexutil.EncodeUint64(n))
}

// BigQuantity is Quantity for arbitrary precision values. A nil value becomes null.
func BigQuantity(n *big.Int) json.RawMessage {
	if n == nil {
		return null
	}
	if n.Sign() < 0 {
		// negative quantities do not exist on the wire; send the decimal text and let
		// the node reject it
		return String(n.String())
	}
	return quoted(hexutil.EncodeBig(n))
}

// Bytes encodes b as 0x-prefixed hex data.
func Bytes(b []byte) json.RawMessage {
	return quoted(hexutil.Encode(b))
}

// Address encodes a in its checksummed form.
func Address(a common.Address) json.RawMessage {
	return quoted(a.Hex())
}

func Hash(h common.Hash) json.RawMessage {
	return quoted(h.Hex())
}

// Value marshals an arbitrary Go value. Unlike the helpers above it can fail, so it is
// meant for ad hoc calls rather than namespace methods.
func Value(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// quoted wraps text that is known to contain only hex digits and the 0x prefix.
func quoted(s string) json.RawMessage {
	b := make([]byte, 0, len(s)+2)
	b = append(b, '"')
	b = append(b, s...)
	return append(b, '"')
}
