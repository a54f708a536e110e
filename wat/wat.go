package wat

import (
	stderrors "errors"

	"github.com/wippyai/strokebridge/errors"
	"github.com/wippyai/strokebridge/wat/internal/encoder"
	"github.com/wippyai/strokebridge/wat/internal/parser"
	"github.com/wippyai/strokebridge/wat/internal/sexpr"
	"github.com/wippyai/strokebridge/wat/internal/token"
)

// Compile translates WAT source into a binary wasm module. The result is
// not validated; the runtime validates it at compile time.
func Compile(source string) ([]byte, error) {
	tokens, err := token.Tokenize(source)
	if err != nil {
		var te *token.Error
		if stderrors.As(err, &te) {
			return nil, errors.Syntax(te.Line, "%s", te.Msg)
		}
		return nil, err
	}
	nodes, err := sexpr.Parse(tokens)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindSyntax, err, "unbalanced parentheses")
	}
	mod, err := parser.New().Parse(nodes)
	if err != nil {
		return nil, err
	}
	return encoder.Encode(mod), nil
}
