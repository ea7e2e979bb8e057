package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/54b3r/hsearch/internal/document"
)

// toolDefinitions describes the tools advertised by tools/list, in the MCP
// tool-schema shape.
var toolDefinitions = []map[string]any{
	{
		"name":        "search",
		"description": "Search the indexed document corpus using hybrid dense+lexical retrieval.",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":  map[string]any{"type": "string"},
				"top_k":  map[string]any{"type": "number"},
				"filters": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"source_type": map[string]any{"type": "string"},
						"path_prefix": map[string]any{"type": "string"},
					},
				},
			},
			"required": []string{"query"},
		},
	},
	{
		"name":        "get",
		"description": "Fetch a single indexed chunk by its chunk_id.",
		"inputSchema": map[string]any{
			"type":       "object",
			"properties": map[string]any{"chunk_id": map[string]any{"type": "string"}},
			"required":   []string{"chunk_id"},
		},
	},
	{
		"name":        "stats",
		"description": "Report the indexed chunk count (from the lexical index), the collection name, and the tokenizer.",
		"inputSchema": map[string]any{"type": "object", "properties": map[string]any{}},
	},
}

const defaultTopK = 10

// searchArgs is the `arguments` shape for the `search` tool.
type searchArgs struct {
	Query   string  `json:"query"`
	TopK    int     `json:"top_k"`
	Filters filters `json:"filters"`
}

type filters struct {
	SourceType string `json:"source_type"`
	PathPrefix string `json:"path_prefix"`
}

// getArgs is the `arguments` shape for the `get` tool.
type getArgs struct {
	ChunkID string `json:"chunk_id"`
}

// toolEnvelope is the result shape returned for every tools/call.
type toolEnvelope struct {
	Content []toolContent `json:"content"`
	IsError bool          `json:"isError"`
}

type toolContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func textEnvelope(isError bool, payload any) toolEnvelope {
	text, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return toolEnvelope{IsError: true, Content: []toolContent{{Type: "text", Text: fmt.Sprintf("internal error: %v", err)}}}
	}
	return toolEnvelope{IsError: isError, Content: []toolContent{{Type: "text", Text: string(text)}}}
}

func errEnvelope(msg string) toolEnvelope {
	return toolEnvelope{IsError: true, Content: []toolContent{{Type: "text", Text: msg}}}
}

// callTool executes name with the given raw JSON arguments. The only error
// return is for an unknown tool name — the sole remaining JSON-RPC-level
// failure once params have type-checked; everything else is reported inside
// the returned envelope with IsError true.
func (s *Server) callTool(ctx context.Context, name string, rawArgs json.RawMessage) (toolEnvelope, error) {
	switch name {
	case "search":
		return s.callSearch(ctx, rawArgs), nil
	case "get":
		return s.callGet(ctx, rawArgs), nil
	case "stats":
		return s.callStats(ctx), nil
	default:
		return toolEnvelope{}, fmt.Errorf("unknown tool: %s", name)
	}
}

func (s *Server) callSearch(ctx context.Context, rawArgs json.RawMessage) toolEnvelope {
	args := searchArgs{TopK: defaultTopK}
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return errEnvelope("invalid arguments: " + err.Error())
	}
	if args.Query == "" {
		return errEnvelope("search: query is required")
	}
	if args.TopK <= 0 {
		args.TopK = defaultTopK
	}

	results, err := s.searcher.Search(ctx, args.Query, args.TopK, document.Filters{
		SourceType: args.Filters.SourceType,
		PathPrefix: args.Filters.PathPrefix,
	})
	if err != nil {
		return errEnvelope("search failed: " + err.Error())
	}

	return textEnvelope(false, map[string]any{"results": results})
}

func (s *Server) callGet(ctx context.Context, rawArgs json.RawMessage) toolEnvelope {
	var args getArgs
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return errEnvelope("invalid arguments: " + err.Error())
	}
	if args.ChunkID == "" {
		return errEnvelope("get: chunk_id is required")
	}

	detail, ok, err := s.searcher.GetChunk(ctx, args.ChunkID)
	if err != nil {
		return errEnvelope("get failed: " + err.Error())
	}
	if !ok {
		return errEnvelope(fmt.Sprintf("chunk %q not found", args.ChunkID))
	}

	return textEnvelope(false, detail)
}

func (s *Server) callStats(ctx context.Context) toolEnvelope {
	// chunk_count is sourced from the lexical index, not the vector store:
	// both are kept in sync at ingest time, but the lexical count is the
	// cheaper local call.
	_, err := s.collectionInfo(ctx)
	if err != nil {
		return errEnvelope("stats failed: " + err.Error())
	}
	chunkCount, err := s.lexicalCount()
	if err != nil {
		return errEnvelope("stats failed: " + err.Error())
	}
	return textEnvelope(false, map[string]any{
		"chunk_count": chunkCount,
		"collection":  s.cfg.CollectionName,
		"tokenizer":   s.cfg.Tokenizer,
	})
}
