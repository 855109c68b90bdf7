package server

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"unicode"
	"web3-rpc/message"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// callback is one exported method of a registered receiver.
type callback struct {
	fn        reflect.Value // Bound method value, receiver included
	argTypes  []reflect.Type
	hasCtx    bool // First parameter is a context.Context
	hasResult bool
	errPos    int // Index of the error result, -1 when there is none
}

// service is the set of callbacks registered under one namespace.
type service struct {
	name      string
	callbacks map[string]*callback
}

// newService scans rcvr for methods usable as remote calls. A method qualifies when
// it is not variadic and returns (), (result), (error) or (result, error).
func newService(name string, rcvr any) (*service, error) {
	val := reflect.ValueOf(rcvr)
	if !val.IsValid() {
		return nil, fmt.Errorf("rpc: receiver for namespace %q is nil", name)
	}
	typ := val.Type()

	svc := &service{name: name, callbacks: make(map[string]*callback)}
	for i := 0; i < typ.NumMethod(); i++ {
		method := typ.Method(i)
		if cb := newCallback(val.Method(i)); cb != nil {
			svc.callbacks[formatName(method.Name)] = cb
		}
	}
	if len(svc.callbacks) == 0 {
		return nil, fmt.Errorf("rpc: %s has no exported methods of suitable type", typ)
	}
	return svc, nil
}

func newCallback(fn reflect.Value) *callback {
	typ := fn.Type()
	if typ.IsVariadic() {
		return nil
	}

	cb := &callback{fn: fn, errPos: -1}
	first := 0
	if typ.NumIn() > 0 && typ.In(0) == contextType {
		cb.hasCtx = true
		first = 1
	}
	for i := first; i < typ.NumIn(); i++ {
		cb.argTypes = append(cb.argTypes, typ.In(i))
	}

	switch typ.NumOut() {
	case 0:
	case 1:
		if typ.Out(0) == errorType {
			cb.errPos = 0
		} else {
			cb.hasResult = true
		}
	case 2:
		if typ.Out(0) == errorType || typ.Out(1) != errorType {
			return nil
		}
		cb.hasResult, cb.errPos = true, 1
	default:
		return nil
	}
	return cb
}

// parseArgs decodes positional parameters. Trailing parameters may be left out when
// their type is a pointer; they are passed as nil.
func (cb *callback) parseArgs(params []json.RawMessage) ([]reflect.Value, error) {
	if len(params) > len(cb.argTypes) {
		return nil, message.ErrInvalidParams(fmt.Sprintf("too many arguments, want at most %d", len(cb.argTypes)))
	}

	args := make([]reflect.Value, 0, len(cb.argTypes)+1)
	for i, typ := range cb.argTypes {
		if i >= len(params) {
			if typ.Kind() != reflect.Pointer {
				return nil, message.ErrInvalidParams(fmt.Sprintf("missing value for required argument %d", i))
			}
			args = append(args, reflect.Zero(typ))
			continue
		}
		v := reflect.New(typ)
		if err := json.Unmarshal(params[i], v.Interface()); err != nil {
			return nil, message.ErrInvalidParams(fmt.Sprintf("invalid argument %d: %v", i, err))
		}
		args = append(args, v.Elem())
	}
	return args, nil
}

func (cb *callback) call(ctx context.Context, params []json.RawMessage) (any, error) {
	args, err := cb.parseArgs(params)
	if err != nil {
		return nil, err
	}
	if cb.hasCtx {
		args = append([]reflect.Value{reflect.ValueOf(ctx)}, args...)
	}

	out := cb.fn.Call(args)
	if cb.errPos >= 0 && !out[cb.errPos].IsNil() {
		return nil, out[cb.errPos].Interface().(error)
	}
	if cb.hasResult {
		return out[0].Interface(), nil
	}
	return nil, nil
}

// formatName lowercases the first letter: ContentFrom becomes contentFrom.
func formatName(name string) string {
	r := []rune(name)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
