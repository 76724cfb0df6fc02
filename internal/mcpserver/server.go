// Package mcpserver exposes the decoders as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"errors"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/RowanDark/cipherbreak/internal/cipher"
	"github.com/RowanDark/cipherbreak/internal/logging"
	"github.com/RowanDark/cipherbreak/internal/service"
)

// Server wraps the MCP SDK server with one tool per cipher kind.
type Server struct {
	MCPServer *sdkmcp.Server
	svc       *service.Service
	logger    *logging.Logger
}

// NewServer creates an MCP server with every decoding tool registered.
func NewServer(svc *service.Service, version string, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	if version == "" {
		version = "dev"
	}
	s := &Server{
		MCPServer: sdkmcp.NewServer(&sdkmcp.Implementation{Name: "cipherbreak", Version: version}, nil),
		svc:       svc,
		logger:    logger,
	}
	s.registerTools()
	return s
}

// Run serves the tools over stdin/stdout until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

type textInput struct {
	Text string `json:"text" jsonschema:"the text to analyse"`
}

type caesarInput struct {
	Text  string `json:"text" jsonschema:"the ciphertext"`
	Shift *int   `json:"shift,omitempty" jsonschema:"known encryption shift; omit to search all 25"`
}

type railFenceInput struct {
	Text  string `json:"text" jsonschema:"the ciphertext"`
	Rails *int   `json:"rails,omitempty" jsonschema:"known rail count; omit to search"`
}

type substitutionInput struct {
	Text string `json:"text" jsonschema:"the ciphertext"`
	Key  string `json:"key,omitempty" jsonschema:"known 26 letter cipher alphabet; omit to hill-climb"`
}

type decodeOutput struct {
	Kind    string `json:"kind"`
	Result  string `json:"result"`
	Outcome string `json:"outcome"`
}

type identifyOutput struct {
	Result     string                   `json:"result"`
	Detections []cipher.DetectionResult `json:"detections"`
}

type tool struct {
	name        string
	kind        cipher.Kind
	description string
}

var textTools = []tool{
	{"atbash_cipher_decoder", cipher.KindAtbash, "Decode text encrypted with the Atbash cipher (A<->Z mirror)."},
	{"morse_code_decoder", cipher.KindMorse, "Decode International Morse code. Letters are separated by spaces, words by '/', '|' or three spaces."},
	{"polybius_square_decoder", cipher.KindPolybius, "Decode Polybius square coordinates such as '23 15 31 31 34'. I and J share a cell."},
	{"acrostic_detector", cipher.KindAcrostic, "Find a hidden message in the first letters of lines, words or sentences."},
	{"numeric_encoding_decoder", cipher.KindNumeric, "Decode numbers mapped to letters (A=1 .. Z=26)."},
	{"phone_keypad_decoder", cipher.KindKeypad, "Decode multi-tap phone keypad digits such as '44 33 555 555 666'."},
	{"reverse_text", cipher.KindReverse, "Reverse text character by character."},
	{"capitalization_detector", cipher.KindCapitals, "Extract a message hidden in the capital letters of text."},
	{"multi_layer_decoder", cipher.KindMultiLayer, "Try stacked reversal, Atbash and Caesar layers and return the most English-like result."},
	{"base64_decoder", cipher.KindBase64, "Decode standard or URL-safe Base64."},
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "caesar_cipher_decoder",
		Description: "Decode a Caesar cipher. Without a shift every rotation is scored and the most English-like wins.",
	}, s.handleCaesar)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "simple_substitution_decoder",
		Description: "Break a monoalphabetic substitution cipher by frequency-seeded hill climbing.",
	}, s.handleSubstitution)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "rail_fence_decoder",
		Description: "Decode a rail fence transposition, searching rail counts unless rails is given.",
	}, s.handleRailFence)

	for _, t := range textTools {
		sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
			Name:        t.name,
			Description: t.description,
		}, s.textHandler(t.kind))
	}

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "cipher_type_identifier",
		Description: "Rank the cipher kinds that plausibly produced the text, with confidence and reasoning.",
	}, s.handleIdentify)
}

func (s *Server) textHandler(kind cipher.Kind) func(context.Context, *sdkmcp.CallToolRequest, textInput) (*sdkmcp.CallToolResult, decodeOutput, error) {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in textInput) (*sdkmcp.CallToolResult, decodeOutput, error) {
		out, err := s.decode(ctx, kind, in.Text, nil)
		return nil, out, err
	}
}

func (s *Server) handleCaesar(ctx context.Context, _ *sdkmcp.CallToolRequest, in caesarInput) (*sdkmcp.CallToolResult, decodeOutput, error) {
	var params cipher.Params
	if in.Shift != nil {
		params = cipher.Params{"shift": *in.Shift}
	}
	out, err := s.decode(ctx, cipher.KindCaesar, in.Text, params)
	return nil, out, err
}

func (s *Server) handleRailFence(ctx context.Context, _ *sdkmcp.CallToolRequest, in railFenceInput) (*sdkmcp.CallToolResult, decodeOutput, error) {
	var params cipher.Params
	if in.Rails != nil {
		params = cipher.Params{"rails": *in.Rails}
	}
	out, err := s.decode(ctx, cipher.KindRailFence, in.Text, params)
	return nil, out, err
}

func (s *Server) handleSubstitution(ctx context.Context, _ *sdkmcp.CallToolRequest, in substitutionInput) (*sdkmcp.CallToolResult, decodeOutput, error) {
	var params cipher.Params
	if key := strings.TrimSpace(in.Key); key != "" {
		params = cipher.Params{"key": key}
	}
	out, err := s.decode(ctx, cipher.KindSubstitution, in.Text, params)
	return nil, out, err
}

func (s *Server) handleIdentify(ctx context.Context, _ *sdkmcp.CallToolRequest, in textInput) (*sdkmcp.CallToolResult, identifyOutput, error) {
	detections, err := s.svc.Identify(ctx, in.Text)
	if err != nil {
		if errors.Is(err, cipher.ErrEmptyInput) {
			return nil, identifyOutput{}, errors.New("text is required")
		}
		return nil, identifyOutput{}, err
	}
	out := identifyOutput{Result: "NO CIPHER IDENTIFIED", Detections: detections}
	if len(detections) > 0 {
		out.Result = string(detections[0].Kind)
	}
	return nil, out, nil
}

func (s *Server) decode(ctx context.Context, kind cipher.Kind, text string, params cipher.Params) (decodeOutput, error) {
	res, err := s.svc.Decode(ctx, string(kind), text, params)
	if err != nil {
		s.logger.Warn("mcp decode", zap.String("kind", string(kind)), zap.Error(err))
		return decodeOutput{}, err
	}
	return decodeOutput{Kind: string(res.Kind), Result: res.Output, Outcome: res.Outcome}, nil
}
