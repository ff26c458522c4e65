package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sumatoshi-tech/docsplice/internal/config"
	"github.com/Sumatoshi-tech/docsplice/pkg/transform"
)

// transformerStack is the configured transformer plus the optional cache in front of it.
type transformerStack struct {
	transform.Transformer

	cache *transform.Cache
}

// newTransformer builds the transformer selected by cfg.Transform.
func newTransformer(cfg *config.Config) (*transformerStack, error) {
	tc := cfg.Transform

	prompts, err := transform.LoadPromptContext(tc.ContextPath)
	if err != nil {
		return nil, err
	}

	var base transform.Transformer

	switch tc.Provider {
	case config.ProviderIdentity:
		base = transform.Identity{}
	case config.ProviderOpenAI:
		base, err = transform.NewOpenAI(transform.OpenAIConfig{
			Model:       tc.Model,
			BaseURL:     tc.BaseURL,
			APIKeyEnv:   tc.APIKeyEnv,
			Temperature: tc.Temperature,
			Timeout:     tc.Timeout,
			Context:     prompts,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidProvider, tc.Provider)
	}

	stack := &transformerStack{Transformer: base}

	if tc.CachePath == "" {
		return stack, nil
	}

	err = os.MkdirAll(filepath.Dir(tc.CachePath), 0o750)
	if err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	namespace := fmt.Sprintf("%s/%s/%s", tc.Provider, tc.Model, prompts.Digest())

	stack.cache, err = transform.NewCache(tc.CachePath, namespace, base)
	if err != nil {
		return nil, err
	}

	stack.Transformer = stack.cache

	return stack, nil
}

// cacheStats returns cache hits and misses, zero without a cache.
func (s *transformerStack) cacheStats() (hits, misses int64) {
	if s.cache == nil {
		return 0, 0
	}

	return s.cache.Hits(), s.cache.Misses()
}

// Close releases the cache database.
func (s *transformerStack) Close() error {
	if s.cache == nil {
		return nil
	}

	return s.cache.Close()
}
