// ABOUTME: MCP server setup for the fitlog record services.
// ABOUTME: Exposes tools and resources over stdio for AI assistants.
package mcp

import (
	"context"

	"github.com/harperreed/fitlog/internal/records"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// Server wraps the MCP server with record service access.
type Server struct {
	mcpServer *mcp.Server
	svc       *records.Services
	log       *zap.Logger
}

// NewServer creates a new MCP server over the given services.
func NewServer(svc *records.Services, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "fitlog",
			Version: Version,
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		svc:       svc,
		log:       log,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("mcp server starting", zap.String("transport", "stdio"))
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
