package transport

import (
	"context"
	"encoding/json"
	"errors"
	"web3-rpc/message"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Geth adapts a go-ethereum rpc.Client. It speaks every scheme that client does
// (http, ws, ipc, stdio, in-process) and is the natural choice when the application
// already links go-ethereum.
type Geth struct {
	client *gethrpc.Client
}

func NewGeth(client *gethrpc.Client) *Geth {
	return &Geth{client: client}
}

// DialGeth connects with go-ethereum's URL rules: http(s)://, ws(s):// or an IPC path.
func DialGeth(ctx context.Context, rawurl string) (*Geth, error) {
	client, err := gethrpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return NewGeth(client), nil
}

func (t *Geth) Send(ctx context.Context, method string, params []json.RawMessage) *Pending {
	p := NewPending()
	args := make([]any, len(params))
	for i, param := range params {
		args[i] = param
	}
	go func() {
		var raw json.RawMessage
		if err := t.client.CallContext(ctx, &raw, method, args...); err != nil {
			p.Resolve(nil, fromGethError(err))
			return
		}
		p.Resolve(raw, nil)
	}()
	return p
}

// Client exposes the underlying go-ethereum client, e.g. for ethclient.NewClient.
func (t *Geth) Client() *gethrpc.Client {
	return t.client
}

func (t *Geth) Close() error {
	t.client.Close()
	return nil
}

// fromGethError turns go-ethereum's remote error values into *message.Error so that
// callers see one error type whatever transport is in use.
func fromGethError(err error) error {
	var rpcErr gethrpc.Error
	if !errors.As(err, &rpcErr) {
		return err
	}
	e := &message.Error{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
	var dataErr gethrpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		if data, mErr := json.Marshal(dataErr.ErrorData()); mErr == nil {
			e.Data = data
		}
	}
	return e
}
