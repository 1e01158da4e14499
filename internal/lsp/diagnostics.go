package lsp

import (
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/roach88/picoparse/internal/engine"
	"github.com/roach88/picoparse/internal/grammar"
	"github.com/roach88/picoparse/internal/text"
)

// Diagnose parses content with g. A parse failure becomes one error
// diagnostic spanning the rune at the failure offset; a successful parse
// returns an empty, non-nil list so clients clear earlier diagnostics.
// Errors other than parse failures are returned.
func Diagnose(g grammar.Grammar, content string) ([]protocol.Diagnostic, error) {
	_, _, err := g.Parse(content)
	if err == nil {
		return []protocol.Diagnostic{}, nil
	}
	nm, ok := engine.AsNoMatch(err)
	if !ok {
		return nil, err
	}

	runes := text.Runes(content)
	start := PositionAt(runes, nm.Offset)
	end := start
	if nm.Offset < len(runes) && runes[nm.Offset] != '\n' {
		end = PositionAt(runes, nm.Offset+1)
	}

	severity := protocol.DiagnosticSeverityError
	source := lsName + "/" + g.Name
	return []protocol.Diagnostic{{
		Range:    protocol.Range{Start: start, End: end},
		Severity: &severity,
		Source:   &source,
		Message:  nm.Description,
	}}, nil
}

// PositionAt converts a rune offset into an LSP position: a 0-based line and
// a character count in UTF-16 code units. Offsets past the end clamp to the
// end of input.
func PositionAt(runes []rune, offset int) protocol.Position {
	var line, char protocol.UInteger
	for i, r := range runes {
		if i >= offset {
			break
		}
		if r == '\n' {
			line++
			char = 0
			continue
		}
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		char += protocol.UInteger(n)
	}
	return protocol.Position{Line: line, Character: char}
}
