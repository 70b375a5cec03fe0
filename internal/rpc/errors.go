package rpc

import (
	"fmt"

	"github.com/LeJamon/poolgovd/internal/core/result"
)

// RpcError is returned inside the result object of a failed call.
type RpcError struct {
	Code        int    `json:"error_code"`
	ErrorString string `json:"error"`
	Message     string `json:"error_message,omitempty"`
}

func (e *RpcError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.ErrorString
}

// Transport error codes. Governance failures carry their result code
// instead, so the two ranges never overlap.
const (
	RpcMETHOD_NOT_FOUND = -32601
	RpcINVALID_PARAMS   = -32602
	RpcINTERNAL         = -32603
	RpcPARSE_ERROR      = -32700

	RpcMISSING_COMMAND  = 2
	RpcSTREAM_MALFORMED = 26
)

func NewRpcError(code int, errorString, message string) *RpcError {
	return &RpcError{Code: code, ErrorString: errorString, Message: message}
}

func RpcErrorMethodNotFound(method string) *RpcError {
	return NewRpcError(RpcMETHOD_NOT_FOUND, "unknownCmd", fmt.Sprintf("Unknown method '%s'", method))
}

func RpcErrorInvalidParams(message string) *RpcError {
	return NewRpcError(RpcINVALID_PARAMS, "invalidParams", message)
}

func RpcErrorInternal(message string) *RpcError {
	return NewRpcError(RpcINTERNAL, "internal", message)
}

// fromError maps a governance error to an RpcError carrying its result code.
func fromError(err error) *RpcError {
	code := result.CodeOf(err)
	if code < 0 {
		return RpcErrorInternal(err.Error())
	}
	return NewRpcError(int(code), code.String(), err.Error())
}
