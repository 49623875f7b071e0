package nsolana

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"surfpool-replay/core"

	"github.com/gagliardetto/solana-go/rpc"
)

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcHandler func(params json.RawMessage) (interface{}, *rpcError)

// A minimal JSON-RPC validator answering from per method handlers.
type fakeValidator struct {
	lock     sync.Mutex
	handlers map[string]rpcHandler
	calls    map[string]int
	server   *httptest.Server
}

func newFakeValidator(t *testing.T) *fakeValidator {
	this := &fakeValidator{
		handlers: make(map[string]rpcHandler),
		calls:    make(map[string]int),
	}

	this.server = httptest.NewServer(http.HandlerFunc(this.serve))
	t.Cleanup(this.server.Close)

	return this
}

func (this *fakeValidator) handle(method string, handler rpcHandler) {
	this.lock.Lock()
	defer this.lock.Unlock()
	this.handlers[method] = handler
}

func (this *fakeValidator) result(method string, value interface{}) {
	this.handle(method, func(json.RawMessage) (interface{}, *rpcError) {
		return value, nil
	})
}

func (this *fakeValidator) count(method string) int {
	this.lock.Lock()
	defer this.lock.Unlock()
	return this.calls[method]
}

func (this *fakeValidator) client() *rpc.Client {
	return rpc.New(this.server.URL)
}

func (this *fakeValidator) connection(commitment string) *Connection {
	return newConnection(core.NewNoLogger(), this.server.URL, this.client(), commitment, 0, 0)
}

func (this *fakeValidator) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     interface{}     `json:"id"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	this.lock.Lock()
	handler, found := this.handlers[req.Method]
	this.calls[req.Method] += 1
	this.lock.Unlock()

	resp := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      req.ID,
	}

	if !found {
		resp["error"] = &rpcError{Code: -32601, Message: "method not found"}
	} else if result, rerr := handler(req.Params); rerr != nil {
		resp["error"] = rerr
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func statusValue(slot uint64, status string, txErr interface{}) map[string]interface{} {
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": slot},
		"value": []interface{}{
			map[string]interface{}{
				"slot":               slot,
				"confirmations":      nil,
				"err":                txErr,
				"confirmationStatus": status,
			},
		},
	}
}

func unknownStatus() map[string]interface{} {
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": 1},
		"value":   []interface{}{nil},
	}
}
