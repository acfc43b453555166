package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	glang "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	"cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	goption "google.golang.org/api/option"

	"spendlog/internal/log"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-3-flash-preview"

var errEmptyCandidate = errors.New("model returned no text")

// Gemini is a Model backed by the Generative Language API.
type Gemini struct {
	client *glang.GenerativeClient
	model  string
	logger *log.Logger
}

var _ Model = (*Gemini)(nil)

// GeminiConfig selects the credential, model and endpoint.
type GeminiConfig struct {
	APIKey   string
	Model    string
	Endpoint string
}

// NewGemini creates a Gemini client over the REST transport. Extra options are
// appended after the ones derived from cfg.
func NewGemini(ctx context.Context, cfg GeminiConfig, logger *log.Logger, opts ...goption.ClientOption) (*Gemini, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	var clientOpts []goption.ClientOption
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, goption.WithAPIKey(cfg.APIKey))
	}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, goption.WithEndpoint(cfg.Endpoint))
	}
	clientOpts = append(clientOpts, opts...)

	client, err := glang.NewGenerativeRESTClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create generative language client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	return &Gemini{
		client: client,
		model:  model,
		logger: logger.WithComponent(log.ComponentAdvisor),
	}, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.model }

// Close releases the underlying connection.
func (g *Gemini) Close() error { return g.client.Close() }

func (g *Gemini) Generate(ctx context.Context, history []Turn) (string, error) {
	req := &generativelanguagepb.GenerateContentRequest{
		Model:    "models/" + g.model,
		Contents: make([]*generativelanguagepb.Content, 0, len(history)),
	}
	for _, t := range history {
		req.Contents = append(req.Contents, &generativelanguagepb.Content{
			Role: t.Role,
			Parts: []*generativelanguagepb.Part{
				{Data: &generativelanguagepb.Part_Text{Text: t.Text}},
			},
		})
	}

	resp, err := g.client.GenerateContent(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text, err := firstCandidateText(resp)
	if err != nil {
		return "", err
	}

	g.logger.DebugContext(ctx, "Model replied",
		log.FieldModel, g.model,
		"turns", len(history),
		"reply_length", len(text))

	return text, nil
}

func firstCandidateText(resp *generativelanguagepb.GenerateContentResponse) (string, error) {
	candidates := resp.GetCandidates()
	if len(candidates) == 0 {
		if reason := resp.GetPromptFeedback().GetBlockReason(); reason != generativelanguagepb.GenerateContentResponse_PromptFeedback_BLOCK_REASON_UNSPECIFIED {
			return "", fmt.Errorf("prompt blocked: %s", reason)
		}
		return "", errEmptyCandidate
	}

	c := candidates[0]
	var b strings.Builder
	for _, p := range c.GetContent().GetParts() {
		b.WriteString(p.GetText())
	}
	if b.Len() == 0 {
		if reason := c.GetFinishReason(); reason != generativelanguagepb.Candidate_FINISH_REASON_UNSPECIFIED {
			return "", fmt.Errorf("%w (finish reason %s)", errEmptyCandidate, reason)
		}
		return "", errEmptyCandidate
	}
	return b.String(), nil
}
