package mcp

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(t *testing.T, s *Server, lines ...string) []Response {
	t.Helper()
	var out bytes.Buffer
	if err := s.Serve(strings.NewReader(strings.Join(lines, "\n")+"\n"), &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	var resps []Response
	dec := json.NewDecoder(&out)
	for {
		var r Response
		if err := dec.Decode(&r); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("decode response: %v", err)
		}
		resps = append(resps, r)
	}
	return resps
}

func TestInitializeAndToolsList(t *testing.T) {
	s := NewServer("http://unused", "")
	resps := serve(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"nope"}`,
	)

	if len(resps) != 3 {
		t.Fatalf("got %d responses, want 3 (notification has none)", len(resps))
	}

	raw, _ := json.Marshal(resps[1].Result)
	var list ToolsListResult
	json.Unmarshal(raw, &list)
	names := map[string]bool{}
	for _, tool := range list.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"tm_search", "tm_commit", "tm_characters", "tm_get_work", "tm_set_work", "tm_translate"} {
		if !names[want] {
			t.Errorf("tool %s not listed", want)
		}
	}

	if resps[2].Error == nil || resps[2].Error.Code != -32601 {
		t.Errorf("unknown method error = %+v", resps[2].Error)
	}
}

func TestParseError(t *testing.T) {
	resps := serve(t, NewServer("http://unused", ""), `{not json`)
	if len(resps) != 1 || resps[0].Error == nil || resps[0].Error.Code != -32700 {
		t.Fatalf("responses = %+v", resps)
	}
}

func TestToolsCallRejectsBadParams(t *testing.T) {
	resps := serve(t, NewServer("http://unused", ""),
		`{"jsonrpc":"2.0","id":1,"method":"tools/call"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"arguments":{}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":[1,2]}`,
	)
	if len(resps) != 3 {
		t.Fatalf("got %d responses, want 3", len(resps))
	}
	for i, r := range resps {
		if r.Error == nil || r.Error.Code != -32602 {
			t.Errorf("response %d error = %+v, want -32602", i, r.Error)
		}
	}
}

func TestSearchToolDelegatesWithContext(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"matches":[]}`))
	}))
	defer srv.Close()

	resps := serve(t, NewServer(srv.URL, "secret"),
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"tm_search","arguments":{"query":"hello","sceneType":"dialogue","chapterNumber":3}}}`,
	)

	if gotPath != "/entries/search" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth = %q", gotAuth)
	}
	if _, ok := gotBody["workId"]; ok {
		t.Error("absent workId should not be sent")
	}
	ctx, _ := gotBody["context"].(map[string]interface{})
	if ctx["sceneType"] != "dialogue" || ctx["chapterNumber"] != float64(3) {
		t.Errorf("context = %v", gotBody["context"])
	}
	if gotBody["threshold"] != 0.8 {
		t.Errorf("threshold = %v, want default 0.8", gotBody["threshold"])
	}

	raw, _ := json.Marshal(resps[0].Result)
	var result CallToolResult
	json.Unmarshal(raw, &result)
	if result.IsError || !strings.Contains(result.Content[0].Text, "matches") {
		t.Errorf("result = %+v", result)
	}
}

func TestToolErrorsAreFlagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"work not found"}`))
	}))
	defer srv.Close()

	resps := serve(t, NewServer(srv.URL, ""),
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"tm_get_work","arguments":{"title":"Missing"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"tm_characters","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"bogus"}}`,
	)

	for i, r := range resps {
		raw, _ := json.Marshal(r.Result)
		var result CallToolResult
		json.Unmarshal(raw, &result)
		if !result.IsError {
			t.Errorf("response %d not flagged as error: %+v", i, result)
		}
	}
}
