package transform

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Role is the author of a chat message.
type Role string

// Chat roles understood by chat-completion backends.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message.
type Message struct {
	Role    Role   `yaml:"role"`
	Content string `yaml:"content"`
}

var (
	errNoSystemPrompt = errors.New("prompt context: system_prompt is required")
	errNoRequest      = errors.New("prompt context: request is required")
)

// PromptContext describes the conversation used to rewrite one docstring. The first
// round sends the system prompt, the rules, the request and the docstring; each follow
// up is sent as a new user turn after the model's previous answer. The last answer is
// the replacement text.
type PromptContext struct {
	SystemPrompt string   `yaml:"system_prompt"`
	Rules        string   `yaml:"rules"`
	Request      string   `yaml:"request"`
	FollowUps    []string `yaml:"follow_ups"`
}

// DefaultPromptContext converts docstrings to the Google style.
func DefaultPromptContext() PromptContext {
	return PromptContext{
		SystemPrompt: "You are a Python software developer that converts docstrings to the Google style format.",
		Rules:        defaultRules,
		Request:      "Convert the below docstring args and returns to Google style.",
		FollowUps: []string{
			"Validate that you have met the criteria above. " +
				"If the output is correct repeat the output. If the output is incorrect, fix it.",
			"Only display the docstring, as described by the rules above. " +
				`Surround the value with three double quotes: """. ` +
				"If the first line is a docstring description, the first line should start with triple quotes.",
		},
	}
}

const defaultRules = `- Don't exceed 100 character length.
- If there are no parameters/returns, don't include an Args/Returns section.
- Do not modify .. blocks or bullet lists within the Args/Returns section. Only indent 2 spaces.
- For arguments in double brackets, insert them after the argument name.
- Don't include types.
- Don't drop any wording or code examples.
- Here is an example docstring:

"""
Description

Args:
    param_1: description of the param up to 100 chars
        then indent by 4 spaces on the new line

        .. code-block:: python

            # Some python example
            print('hi')

    param_2: description without a new line

Returns:
    some description of the return
"""
`

// LoadPromptContext reads a YAML prompt context. An empty path returns the default.
func LoadPromptContext(path string) (PromptContext, error) {
	if path == "" {
		return DefaultPromptContext(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return PromptContext{}, fmt.Errorf("read prompt context: %w", err)
	}

	var pc PromptContext

	err = yaml.Unmarshal(data, &pc)
	if err != nil {
		return PromptContext{}, fmt.Errorf("parse prompt context %s: %w", path, err)
	}

	err = pc.Validate()
	if err != nil {
		return PromptContext{}, err
	}

	return pc, nil
}

// Validate checks that the required prompts are present.
func (pc PromptContext) Validate() error {
	if pc.SystemPrompt == "" {
		return errNoSystemPrompt
	}

	if pc.Request == "" {
		return errNoRequest
	}

	return nil
}

// Rounds returns the number of model calls one docstring takes.
func (pc PromptContext) Rounds() int {
	return 1 + len(pc.FollowUps)
}

// Opening returns the messages of the first round for a docstring.
func (pc PromptContext) Opening(docstring string) []Message {
	msgs := []Message{{Role: RoleSystem, Content: pc.SystemPrompt}}

	if pc.Rules != "" {
		msgs = append(msgs, Message{Role: RoleUser, Content: "Follow these rules:\n" + pc.Rules})
	}

	return append(msgs,
		Message{Role: RoleUser, Content: pc.Request},
		Message{Role: RoleUser, Content: docstring},
	)
}

// Digest identifies the prompt context, so cached answers from a different context are
// never reused.
func (pc PromptContext) Digest() string {
	data, err := yaml.Marshal(pc)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", pc))
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}
