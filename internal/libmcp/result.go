package libmcp

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
)

// NewToolResultJSON encodes data as the single text item of a tool result.
func NewToolResultJSON(data interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("JSON encoding error: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
