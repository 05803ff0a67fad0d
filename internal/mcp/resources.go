// ABOUTME: MCP resource implementations for fitlog.
// ABOUTME: Provides fitlog://users and fitlog://summary resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	usersURI   = "fitlog://users"
	summaryURI = "fitlog://summary"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         usersURI,
		Name:        "Registered Users",
		Description: "Every registered user",
		MIMEType:    "application/json",
	}, s.handleUsersResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         summaryURI,
		Name:        "Record Summary",
		Description: "Record counts per collection and pending cascade deletes",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)
}

// Resource handlers

func (s *Server) handleUsersResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	users, err := s.svc.Users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return jsonResource(usersURI, users)
}

func (s *Server) handleSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	counts := make(map[string]int)
	for _, c := range s.svc.All() {
		n, err := c.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.Kind().Collection, err)
		}
		counts[c.Kind().Collection] = n
	}

	pending, err := s.svc.PendingCascades(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read cascade journal: %w", err)
	}

	return jsonResource(summaryURI, map[string]any{
		"collections":      counts,
		"pending_cascades": pending,
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
