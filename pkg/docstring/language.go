package docstring

import (
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/alexaandru/go-sitter-forest/python"
)

var (
	pythonOnce sync.Once
	pythonLang *sitter.Language
)

// pythonLanguage returns the tree-sitter Python grammar, loading it once.
func pythonLanguage() *sitter.Language {
	pythonOnce.Do(func() {
		pythonLang = sitter.NewLanguage(python.GetLanguage())
	})

	return pythonLang
}

var parserPool = sync.Pool{
	New: func() any {
		tsParser := sitter.NewParser()
		tsParser.SetLanguage(pythonLanguage())

		return tsParser
	},
}
