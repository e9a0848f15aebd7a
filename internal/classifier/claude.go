package classifier

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ranktest-cli/pkg/anthropic"
)

// Claude judges variant pairs with a vision-capable Anthropic model. One
// request per item, both screenshots in a single user message.
type Claude struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClaude builds a Claude classifier on an existing API client.
func NewClaude(client anthropic.Client, model string, maxTokens int64) *Claude {
	return &Claude{client: client, model: model, maxTokens: maxTokens}
}

// Classify sends both screenshots and the extracted titles to the model
// and parses its JSON verdict. It makes exactly one API call; retry
// policy belongs to the caller.
func (c *Claude) Classify(ctx context.Context, req Request) (*Judgment, error) {
	if len(req.ScreenshotA) == 0 || len(req.ScreenshotB) == 0 {
		return nil, eris.New("classifier: both screenshots are required")
	}

	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			{
				Role: "user",
				Parts: []anthropic.ContentPart{
					anthropic.ImagePart("image/png", req.ScreenshotA),
					anthropic.ImagePart("image/png", req.ScreenshotB),
					anthropic.TextPart(buildPrompt(req)),
				},
			},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "classifier: judge variants")
	}

	resp.Usage.LogCost(c.model, "classify")

	judgment, err := parseJudgment(resp.Text())
	if err != nil {
		return nil, err
	}
	return judgment, nil
}
