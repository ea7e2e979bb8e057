package mcpserver

import (
	"context"
	"encoding/json"
)

// JSON-RPC 2.0 standard error codes used by the dispatcher.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// protocolVersion is the MCP protocol version advertised by `initialize`.
const protocolVersion = "2024-11-05"

// request is a parsed JSON-RPC 2.0 request.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// response is a JSON-RPC 2.0 response: exactly one of Result/Error is set.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func errorResponse(id json.RawMessage, code int, message string) response {
	return response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}}
}

func resultResponse(id json.RawMessage, result any) response {
	return response{JSONRPC: "2.0", ID: id, Result: result}
}

// toolCallParams is the `params` shape for a `tools/call` request.
type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// dispatch executes a single JSON-RPC request and returns its response.
// Tool-execution failures surface as isError:true inside a successful
// response, not as a JSON-RPC error; only malformed params or an unknown
// method/tool name produce a JSON-RPC error object.
func (s *Server) dispatch(ctx context.Context, req request) response {
	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"serverInfo":      map[string]any{"name": "hsearchd", "version": s.version},
			"capabilities":    map[string]any{"tools": map[string]any{"listChanged": false}},
		})

	case "initialized", "notifications/initialized", "ping":
		return resultResponse(req.ID, map[string]any{})

	case "tools/list":
		return resultResponse(req.ID, map[string]any{"tools": toolDefinitions})

	case "tools/call":
		var params toolCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			return errorResponse(req.ID, codeInvalidParams, "invalid params: expected {name, arguments}")
		}
		result, err := s.callTool(ctx, params.Name, params.Arguments)
		if err != nil {
			return errorResponse(req.ID, codeMethodNotFound, err.Error())
		}
		return resultResponse(req.ID, result)

	default:
		return errorResponse(req.ID, codeMethodNotFound, "method not found: "+req.Method)
	}
}
