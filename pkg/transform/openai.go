package transform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Default OpenAI settings.
const (
	DefaultModel     = "gpt-4o-mini"
	DefaultAPIKeyEnv = "OPENAI_API_KEY"
	DefaultTimeout   = 2 * time.Minute
)

var (
	// ErrNoAPIKey is returned when no API key can be resolved.
	ErrNoAPIKey = errors.New("openai: no API key configured")
	// ErrEmptyResponse is returned when the model answers without content.
	ErrEmptyResponse = errors.New("openai: empty response")
)

// OpenAIConfig configures an [OpenAI] transformer.
type OpenAIConfig struct {
	Model       string
	BaseURL     string
	APIKey      string
	APIKeyEnv   string
	Temperature float64
	Timeout     time.Duration
	Context     PromptContext
}

// OpenAI rewrites docstrings with a multi-round chat completion conversation.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	prompts     PromptContext
}

// NewOpenAI builds an OpenAI transformer. The API key is taken from cfg.APIKey, then from
// the environment variable named by cfg.APIKeyEnv.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		env := cfg.APIKeyEnv
		if env == "" {
			env = DefaultAPIKeyEnv
		}

		apiKey = os.Getenv(env)
	}

	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	err := cfg.Context.Validate()
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
		prompts:     cfg.Context,
	}, nil
}

// Transform implements Transformer. Each round appends the previous answer as an
// assistant message followed by the next follow-up prompt.
func (o *OpenAI) Transform(ctx context.Context, text string) (string, error) {
	messages := o.prompts.Opening(text)

	var answer string

	for round := range o.prompts.Rounds() {
		if round > 0 {
			messages = append(messages,
				Message{Role: RoleAssistant, Content: answer},
				Message{Role: RoleUser, Content: o.prompts.FollowUps[round-1]},
			)
		}

		reply, err := o.complete(ctx, messages)
		if err != nil {
			return "", fmt.Errorf("chat round %d/%d: %w", round+1, o.prompts.Rounds(), err)
		}

		answer = reply
	}

	return answer, nil
}

func (o *OpenAI) complete(ctx context.Context, messages []Message) (string, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			params = append(params, openai.SystemMessage(msg.Content))
		case RoleUser:
			params = append(params, openai.UserMessage(msg.Content))
		case RoleAssistant:
			params = append(params, openai.AssistantMessage(msg.Content))
		default:
			return "", fmt.Errorf("unsupported role %q", msg.Role)
		}
	}

	request := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    params,
		Temperature: openai.Float(o.temperature),
	}

	resp, err := o.client.Chat.Completions.New(ctx, request)
	if err != nil {
		return "", err
	}

	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}
