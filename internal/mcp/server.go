package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Server implements an MCP stdio server that delegates to the HTTP
// translation memory server.
type Server struct {
	serverURL string
	apiKey    string
	client    *http.Client
	out       io.Writer
}

// NewServer creates a new MCP server. apiKey may be empty.
func NewServer(serverURL, apiKey string) *Server {
	return &Server{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
		out: os.Stdout,
	}
}

// Run starts the stdio event loop. Blocks until stdin is closed.
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads newline-delimited JSON-RPC requests from in and writes
// responses to out until in is exhausted.
func (s *Server) Serve(in io.Reader, out io.Writer) error {
	s.out = out

	scanner := bufio.NewScanner(in)
	// Increase buffer for large messages
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeError(nil, -32700, "parse error: "+err.Error())
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			s.writeResponse(resp)
		}
	}

	return scanner.Err()
}

func (s *Server) handleRequest(req *Request) *Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		// Notification, no response
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &Response{JSONRPC: "2.0", ID: req.ID, Result: map[string]string{}}
	default:
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: -32601, Message: "method not found: " + req.Method},
		}
	}
}

func (s *Server) handleInitialize(req *Request) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: ServerCapabilities{
				Tools: &ToolCapabilities{},
			},
			ServerInfo: ServerInfo{
				Name:    "transmem",
				Version: "1.0.0",
			},
		},
	}
}

func (s *Server) handleToolsList(req *Request) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  ToolsListResult{Tools: ToolDefinitions()},
	}
}

func (s *Server) handleToolsCall(req *Request) *Response {
	var params CallToolParams
	if len(req.Params) == 0 {
		return s.errorResponse(req.ID, -32602, "invalid params: missing")
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "invalid params: "+err.Error())
	}
	if params.Name == "" {
		return s.errorResponse(req.ID, -32602, "invalid params: tool name is required")
	}

	result, isError := s.dispatchTool(params.Name, params.Arguments)

	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: CallToolResult{
			Content: []ContentBlock{{Type: "text", Text: result}},
			IsError: isError,
		},
	}
}

func (s *Server) dispatchTool(name string, args map[string]interface{}) (string, bool) {
	switch name {
	case "tm_search":
		return s.toolSearch(args)
	case "tm_commit":
		return s.toolCommit(args)
	case "tm_characters":
		return s.toolCharacters(args)
	case "tm_get_work":
		return s.toolGetWork(args)
	case "tm_set_work":
		return s.toolSetWork(args)
	case "tm_translate":
		return s.toolTranslate(args)
	default:
		return fmt.Sprintf("unknown tool: %s", name), true
	}
}

// --- Tool implementations (HTTP delegation) ---

func (s *Server) toolSearch(args map[string]interface{}) (string, bool) {
	body := map[string]interface{}{
		"query":      args["query"],
		"workId":     args["workId"],
		"threshold":  getFloat(args, "threshold", 0.8),
		"maxResults": getFloat(args, "maxResults", 5),
	}
	if c := contextArg(args); c != nil {
		body["context"] = c
	}
	return s.httpDo(http.MethodPost, "/entries/search", body)
}

func (s *Server) toolCommit(args map[string]interface{}) (string, bool) {
	body := map[string]interface{}{
		"originalText":   args["originalText"],
		"translatedText": args["translatedText"],
		"workId":         args["workId"],
		"tags":           args["tags"],
	}
	if c := contextArg(args); c != nil {
		body["context"] = c
	}
	return s.httpDo(http.MethodPost, "/entries", body)
}

func (s *Server) toolCharacters(args map[string]interface{}) (string, bool) {
	title, _ := args["title"].(string)
	if title == "" {
		return "title is required", true
	}
	return s.httpDo(http.MethodGet, "/works/"+url.PathEscape(title)+"/characters", nil)
}

func (s *Server) toolGetWork(args map[string]interface{}) (string, bool) {
	title, _ := args["title"].(string)
	if title == "" {
		return "title is required", true
	}
	return s.httpDo(http.MethodGet, "/works/"+url.PathEscape(title), nil)
}

func (s *Server) toolSetWork(args map[string]interface{}) (string, bool) {
	title, _ := args["title"].(string)
	if title == "" {
		return "title is required", true
	}
	body := map[string]interface{}{
		"title":            title,
		"characters":       args["characters"],
		"glossary":         args["glossary"],
		"genre":            args["genre"],
		"translationStyle": args["translationStyle"],
	}
	return s.httpDo(http.MethodPut, "/works/"+url.PathEscape(title), body)
}

func (s *Server) toolTranslate(args map[string]interface{}) (string, bool) {
	body := map[string]interface{}{
		"text":       args["text"],
		"targetLang": args["targetLang"],
		"sourceLang": args["sourceLang"],
		"workId":     args["workId"],
		"provider":   args["provider"],
		"noCommit":   getBool(args, "noCommit", false),
	}
	if c := contextArg(args); c != nil {
		body["context"] = c
	}
	return s.httpDo(http.MethodPost, "/translate", body)
}

// --- HTTP helpers ---

func (s *Server) httpDo(method, path string, body interface{}) (string, bool) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(dropNil(body))
		if err != nil {
			return fmt.Sprintf("marshal error: %s", err), true
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.serverURL+path, reader)
	if err != nil {
		return fmt.Sprintf("request error: %s", err), true
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Sprintf("HTTP error: %s", err), true
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("read error: %s", err), true
	}

	if resp.StatusCode >= 400 {
		return string(respBody), true
	}

	return string(respBody), false
}

// --- Response helpers ---

func (s *Server) writeResponse(resp *Response) {
	data, _ := json.Marshal(resp)
	fmt.Fprintf(s.out, "%s\n", data)
}

func (s *Server) writeError(id interface{}, code int, message string) {
	resp := &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
	s.writeResponse(resp)
}

func (s *Server) errorResponse(id interface{}, code int, message string) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
}

// --- Argument helpers ---

func getFloat(args map[string]interface{}, key string, fallback float64) float64 {
	if v, ok := args[key]; ok {
		switch val := v.(type) {
		case float64:
			return val
		case int:
			return float64(val)
		}
	}
	return fallback
}

func getBool(args map[string]interface{}, key string, fallback bool) bool {
	if v, ok := args[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

// contextArg gathers the context arguments into a request object, or nil when
// none were given.
func contextArg(args map[string]interface{}) map[string]interface{} {
	c := map[string]interface{}{}
	for key := range contextProperties {
		if v, ok := args[key]; ok && v != nil {
			c[key] = v
		}
	}
	if len(c) == 0 {
		return nil
	}
	return c
}

// dropNil removes absent arguments so the server sees missing fields rather
// than explicit nulls.
func dropNil(body interface{}) interface{} {
	m, ok := body.(map[string]interface{})
	if !ok {
		return body
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if v != nil {
			out[k] = v
		}
	}
	return out
}
