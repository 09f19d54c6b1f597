package steamcfg

import (
	"fmt"
	"strings"
)

// ///////////////////////////////////////////////
// VDF Parsing
// ///////////////////////////////////////////////

// Node is one object in a Valve KeyValues (VDF) document: string values
// keyed by name plus nested child objects. Keys are lowercased on parse
// because Steam writes them with inconsistent casing across versions.
type Node struct {
	Values   map[string]string
	Children map[string]*Node
}

func newNode() *Node {
	return &Node{
		Values:   make(map[string]string),
		Children: make(map[string]*Node),
	}
}

// Child walks a path of nested objects, returning nil when any segment is
// missing.
func (n *Node) Child(path ...string) *Node {
	cur := n
	for _, p := range path {
		if cur == nil {
			return nil
		}
		cur = cur.Children[strings.ToLower(p)]
	}
	return cur
}

// Value returns the string stored under key, or "".
func (n *Node) Value(key string) string {
	if n == nil {
		return ""
	}
	return n.Values[strings.ToLower(key)]
}

// ParseVDF parses a text-format KeyValues document. It handles quoted
// strings with backslash escapes and nested braces; it does not handle the
// binary VDF format, which Steam never uses for localconfig.vdf.
func ParseVDF(data []byte) (*Node, error) {
	p := &vdfParser{data: string(data)}
	root := newNode()
	if err := p.parseInto(root, true); err != nil {
		return nil, err
	}
	return root, nil
}

type vdfParser struct {
	data string
	pos  int
}

// parseInto fills node with key/value and key/{...} pairs until a closing
// brace (or end of input when top is true).
func (p *vdfParser) parseInto(node *Node, top bool) error {
	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			if top {
				return nil
			}
			return fmt.Errorf("vdf: unexpected end of input, unclosed block")
		}
		if p.data[p.pos] == '}' {
			if top {
				return fmt.Errorf("vdf: unexpected '}' at top level (offset %d)", p.pos)
			}
			p.pos++
			return nil
		}

		key, err := p.readString()
		if err != nil {
			return err
		}
		key = strings.ToLower(key)

		p.skipSpace()
		if p.pos >= len(p.data) {
			return fmt.Errorf("vdf: key %q has no value", key)
		}
		if p.data[p.pos] == '{' {
			p.pos++
			child := newNode()
			if err := p.parseInto(child, false); err != nil {
				return err
			}
			node.Children[key] = child
			continue
		}

		value, err := p.readString()
		if err != nil {
			return err
		}
		node.Values[key] = value
	}
}

// skipSpace advances past whitespace and // comments.
func (p *vdfParser) skipSpace() {
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			p.pos++
		case c == '/' && p.pos+1 < len(p.data) && p.data[p.pos+1] == '/':
			for p.pos < len(p.data) && p.data[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

// readString reads a quoted or bare token.
func (p *vdfParser) readString() (string, error) {
	if p.pos >= len(p.data) {
		return "", fmt.Errorf("vdf: expected string at end of input")
	}
	if p.data[p.pos] != '"' {
		// Bare token: read until whitespace or brace.
		start := p.pos
		for p.pos < len(p.data) && !strings.ContainsRune(" \t\r\n{}\"", rune(p.data[p.pos])) {
			p.pos++
		}
		if p.pos == start {
			return "", fmt.Errorf("vdf: unexpected character %q at offset %d", p.data[p.pos], p.pos)
		}
		return p.data[start:p.pos], nil
	}

	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.data) {
				return "", fmt.Errorf("vdf: dangling escape at end of input")
			}
			switch p.data[p.pos] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(p.data[p.pos])
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("vdf: unterminated string")
}
