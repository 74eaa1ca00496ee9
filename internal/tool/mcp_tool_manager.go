package tool

import (
	"context"
	"fmt"
	"strings"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"
	"github.com/smoldhq/smold/internal/config"
	"github.com/smoldhq/smold/pkg/logger"
	"github.com/smoldhq/smold/pkg/message"
)

// MCPToolManager bridges one MCP server over stdio and exposes its tools to
// the model. Tool names are prefixed with the server name so multiple servers
// can coexist in a composite manager.
type MCPToolManager struct {
	registry

	serverName string
	client     *mcpclient.Client
	logger     *logger.Logger
}

// NewMCPToolManager starts the configured MCP server process, performs the
// initialize handshake, and registers every tool the server advertises.
func NewMCPToolManager(ctx context.Context, serverConfig config.MCPServerConfig, log *logger.Logger) (*MCPToolManager, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	env := make([]string, 0, len(serverConfig.Env))
	for key, value := range serverConfig.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}

	c, err := mcpclient.NewStdioMCPClient(serverConfig.Command, env, serverConfig.Args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to start MCP server %s", serverConfig.Name)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "smold",
		Version: "1.0.0",
	}

	if _, err := c.Initialize(ctx, initRequest); err != nil {
		_ = c.Close()
		return nil, errors.Wrapf(err, "failed to initialize MCP server %s", serverConfig.Name)
	}

	m := &MCPToolManager{
		registry:   newRegistry(),
		serverName: serverConfig.Name,
		client:     c,
		logger:     log,
	}

	if err := m.discoverTools(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	return m, nil
}

// Close shuts down the MCP server process.
func (m *MCPToolManager) Close() error {
	return m.client.Close()
}

// discoverTools lists the server's tools and registers a proxy for each.
func (m *MCPToolManager) discoverTools(ctx context.Context) error {
	result, err := m.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return errors.Wrapf(err, "failed to list tools from MCP server %s", m.serverName)
	}

	for _, serverTool := range result.Tools {
		remoteName := serverTool.Name
		localName := message.ToolName(fmt.Sprintf("mcp_%s_%s", m.serverName, remoteName))

		m.RegisterTool(localName, message.ToolDescription(serverTool.Description),
			schemaToToolArguments(serverTool.InputSchema),
			func(ctx context.Context, args message.ToolArgumentValues) (message.ToolResult, error) {
				return m.callServerTool(ctx, remoteName, args)
			})

		m.logger.Debug("Registered MCP tool", "server", m.serverName, "tool", remoteName)
	}

	if len(result.Tools) == 0 {
		m.logger.Warn("MCP server advertises no tools", "server", m.serverName)
	}
	return nil
}

func (m *MCPToolManager) callServerTool(ctx context.Context, remoteName string, args message.ToolArgumentValues) (message.ToolResult, error) {
	request := mcp.CallToolRequest{}
	request.Params.Name = remoteName
	request.Params.Arguments = map[string]any(args)

	result, err := m.client.CallTool(ctx, request)
	if err != nil {
		return message.NewToolResultError(fmt.Sprintf("MCP tool call failed: %v", err)), nil
	}

	text := flattenMCPContent(result.Content)
	if result.IsError {
		if text == "" {
			text = fmt.Sprintf("MCP tool %s reported an error", remoteName)
		}
		return message.NewToolResultError(text), nil
	}
	return message.NewToolResultText(text), nil
}

// flattenMCPContent joins the textual parts of an MCP tool result. Non-text
// content is noted but not rendered.
func flattenMCPContent(content []mcp.Content) string {
	var parts []string
	for _, item := range content {
		switch c := item.(type) {
		case mcp.TextContent:
			parts = append(parts, c.Text)
		case *mcp.TextContent:
			parts = append(parts, c.Text)
		default:
			parts = append(parts, fmt.Sprintf("(unsupported content type %T)", item))
		}
	}
	return strings.Join(parts, "\n")
}

// schemaToToolArguments converts an MCP input schema into tool arguments for
// provider-side schema generation.
func schemaToToolArguments(schema mcp.ToolInputSchema) []message.ToolArgument {
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	var args []message.ToolArgument
	for name, raw := range schema.Properties {
		arg := message.ToolArgument{
			Name:     name,
			Required: required[name],
			Type:     "string",
		}
		if prop, ok := raw.(map[string]any); ok {
			if t, ok := prop["type"].(string); ok && t != "" {
				arg.Type = t
			}
			if d, ok := prop["description"].(string); ok {
				arg.Description = d
			}
		}
		args = append(args, arg)
	}
	return args
}
