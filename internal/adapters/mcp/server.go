package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

const (
	ServerName    = "reliefcheck"
	ServerVersion = "1.0.0"
)

// Server exposes flyer verification and case lookup as MCP tools.
type Server struct {
	MCPServer *sdkmcp.Server

	investigator ports.Investigator
	cases        ports.Cases
	log          *slog.Logger
}

func NewServer(investigator ports.Investigator, cases ports.Cases, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		MCPServer: sdkmcp.NewServer(
			&sdkmcp.Implementation{Name: ServerName, Version: ServerVersion},
			nil,
		),
		investigator: investigator,
		cases:        cases,
		log:          log.With("component", "mcp"),
	}
	s.registerTools()
	return s
}

// Run serves the tools over stdio until ctx is done or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "verify_flyer",
		Description: "Investigate a relief flyer image on local disk. Returns the full investigation report with verdict, risk score and evidence.",
	}, s.handleVerifyFlyer)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_case",
		Description: "Fetch the recorded case file (evidence log, timeline, verdict) for a case id.",
	}, s.handleGetCase)
}

type verifyFlyerInput struct {
	ImagePath string `json:"image_path" jsonschema:"path to the flyer image on the server's filesystem"`
}

type getCaseInput struct {
	CaseID string `json:"case_id" jsonschema:"case id returned by verify_flyer"`
}

func (s *Server) handleVerifyFlyer(ctx context.Context, _ *sdkmcp.CallToolRequest, input verifyFlyerInput) (*sdkmcp.CallToolResult, any, error) {
	if strings.TrimSpace(input.ImagePath) == "" {
		return nil, nil, fmt.Errorf("image_path is required")
	}
	img, err := ReadImage(input.ImagePath)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("verify_flyer", "path", input.ImagePath, "bytes", len(img.Data))

	report := s.investigator.Investigate(ctx, img)
	if report.Status == domain.ReportError {
		return nil, nil, fmt.Errorf("investigation %s failed: %s", report.CaseID, report.Error)
	}
	return textResult(report)
}

func (s *Server) handleGetCase(ctx context.Context, _ *sdkmcp.CallToolRequest, input getCaseInput) (*sdkmcp.CallToolResult, any, error) {
	if strings.TrimSpace(input.CaseID) == "" {
		return nil, nil, fmt.Errorf("case_id is required")
	}
	c, err := s.cases.Get(ctx, input.CaseID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, nil, fmt.Errorf("case %s not found", input.CaseID)
	}
	if err != nil {
		return nil, nil, err
	}
	return textResult(c)
}

// ReadImage loads an image file and sniffs its content type.
func ReadImage(path string) (domain.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Image{}, fmt.Errorf("read image: %w", err)
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return domain.Image{}, fmt.Errorf("%s is not an image (%s)", filepath.Base(path), contentType)
	}
	return domain.Image{Data: data, Filename: path, ContentType: contentType}, nil
}

func textResult(v any) (*sdkmcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(b)}},
	}, nil, nil
}
