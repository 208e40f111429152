package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/copyleftdev/discopt/internal/errors"
	"github.com/copyleftdev/discopt/internal/optimization"
	"github.com/copyleftdev/discopt/internal/problems"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

var errInvalidParams = apperrors.New("invalid params")

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
}

type idParams struct {
	ID string `json:"optimization_id"`
}

// decodeParams accepts params as an object or as a one-element array
// holding the object.
func decodeParams(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return apperrors.Wrap(errInvalidParams, "missing required parameters")
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return apperrors.Wrap(errInvalidParams, "expected a parameter object")
		}
		raw = list[0]
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.Wrap(errInvalidParams, err.Error())
	}
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	var p idParams
	if err := decodeParams(raw, &p); err != nil {
		return "", err
	}
	if p.ID == "" {
		return "", apperrors.Wrap(errInvalidParams, "optimization_id is required")
	}
	return p.ID, nil
}

func rpcCode(err error) int {
	switch {
	case apperrors.Is(err, errInvalidParams),
		optimization.IsValidationError(err),
		apperrors.Is(err, problems.ErrUnknownProblem):
		return codeInvalidParams
	default:
		return codeServerError
	}
}

// handleJSONRPC handles JSON-RPC 2.0 requests
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondRPCError(w, nil, codeParseError, "Parse error")
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		s.respondRPCError(w, req.ID, codeInvalidRequest, "Invalid Request")
		return
	}

	var (
		result interface{}
		err    error
	)
	switch req.Method {
	case "optimization.start":
		var start StartRequest
		if err = decodeParams(req.Params, &start); err == nil {
			result, err = s.Start(start)
		}
	case "optimization.status":
		var id string
		if id, err = decodeID(req.Params); err == nil {
			result, err = s.Status(id)
		}
	case "optimization.cancel":
		var id string
		if id, err = decodeID(req.Params); err == nil {
			if err = s.Cancel(id); err == nil {
				result = map[string]string{"status": "cancellation requested"}
			}
		}
	case "optimization.strategies":
		result = s.strategyList()
	case "optimization.problems":
		result = s.problemList()
	default:
		s.respondRPCError(w, req.ID, codeMethodNotFound, "Method not found")
		return
	}

	if err != nil {
		s.respondRPCError(w, req.ID, rpcCode(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: req.ID, Result: result})
}

// respondRPCError sends a JSON-RPC 2.0 error response
func (s *Server) respondRPCError(w http.ResponseWriter, id interface{}, code int, message string) {
	s.logger.Debug("JSON-RPC error", map[string]interface{}{
		"code":    code,
		"message": message,
	})
	s.respondJSON(w, http.StatusOK, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: code, Message: message},
	})
}
