package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Path addresses a node from the program root. It is the same
// Nodes-slice-with-push/pop shape as graft's tree.Cursor, adapted to
// Amorph's `/`-separated canonical grammar instead of dot/bracket YAML
// paths: segments are `$[n]`, `fn[id-or-name]`, or a bare field key.
type Path struct {
	Segments []string
}

// Root is the empty path, addressing the program itself.
func Root() *Path { return &Path{} }

// Copy returns an independent copy of the path.
func (p *Path) Copy() *Path {
	out := make([]string, len(p.Segments))
	copy(out, p.Segments)
	return &Path{Segments: out}
}

// Push appends a segment and returns the path for chaining.
func (p *Path) Push(seg string) *Path {
	p.Segments = append(p.Segments, seg)
	return p
}

// PushIndex appends a `$[n]` segment.
func (p *Path) PushIndex(n int) *Path {
	return p.Push(fmt.Sprintf("$[%d]", n))
}

// PushFunc appends a `fn[id-or-name]` segment.
func (p *Path) PushFunc(idOrName string) *Path {
	return p.Push(fmt.Sprintf("fn[%s]", idOrName))
}

// String renders the canonical `/`-joined path, e.g. "/$[1]/def/body/$[0]".
func (p *Path) String() string {
	return "/" + strings.Join(p.Segments, "/")
}

// Under reports whether p is a strict descendant of other.
func (p *Path) Under(other *Path) bool {
	if len(p.Segments) <= len(other.Segments) {
		return false
	}
	for i := range other.Segments {
		if p.Segments[i] != other.Segments[i] {
			return false
		}
	}
	return true
}

// segKind classifies a single path segment.
type segKind int

const (
	segField segKind = iota
	segIndex
	segFunc
)

// kind and payload of one canonical segment.
func classify(seg string) (segKind, string, error) {
	switch {
	case strings.HasPrefix(seg, "$[") && strings.HasSuffix(seg, "]"):
		return segIndex, seg[2 : len(seg)-1], nil
	case strings.HasPrefix(seg, "fn[") && strings.HasSuffix(seg, "]"):
		return segFunc, seg[3 : len(seg)-1], nil
	default:
		for _, r := range seg {
			if !(r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
				return segField, seg, fmt.Errorf("invalid path segment %q", seg)
			}
		}
		return segField, seg, nil
	}
}

// ParsePath parses a canonical path string. Empty string or "/" is the
// root path.
func ParsePath(s string) (*Path, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "/" {
		return Root(), nil
	}
	s = strings.TrimPrefix(s, "/")
	parts := strings.Split(s, "/")
	segs := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("empty path segment in %q", s)
		}
		if _, _, err := classify(part); err != nil {
			return nil, err
		}
		segs = append(segs, part)
	}
	return &Path{Segments: segs}, nil
}

// Resolve navigates a program from the root, returning the addressed
// node. It returns only the node itself, never its enclosing sequence;
// the edit engine locates containers for splicing on its own.
func Resolve(prog *Program, p *Path) (Node, error) {
	var cur Node = prog.Body
	for i, seg := range p.Segments {
		kind, payload, err := classify(seg)
		if err != nil {
			return nil, err
		}
		switch kind {
		case segIndex:
			n, err := strconv.Atoi(payload)
			if err != nil {
				return nil, fmt.Errorf("bad index segment %q: %w", seg, err)
			}
			seq, ok := AsSequence(cur)
			if !ok || n < 0 || n >= len(seq) {
				return nil, fmt.Errorf("path %s: segment %d ($[%d]) out of range", p, i, n)
			}
			cur = seq[n]
		case segFunc:
			def, err := findFunction(prog, payload)
			if err != nil {
				return nil, err
			}
			cur = def
		case segField:
			_, _, payloadNode, ok := Discriminator(cur)
			if ok {
				if v, exists := Field(payloadNode, seg); exists {
					cur = v
					continue
				}
			}
			if m, ok := cur.(map[string]interface{}); ok {
				if v, exists := m[seg]; exists {
					cur = v
					continue
				}
			}
			return nil, fmt.Errorf("path %s: segment %d (%q) not found", p, i, seg)
		}
	}
	return cur, nil
}

func findFunction(prog *Program, idOrName string) (Node, error) {
	var found Node
	var count int
	for _, stmt := range prog.Body {
		id, key, payload, ok := Discriminator(stmt)
		if !ok || key != "def" {
			continue
		}
		if id == idOrName {
			return stmt, nil
		}
		if name, _ := Field(payload, "name"); name == idOrName {
			found = stmt
			count++
		}
	}
	if count == 1 {
		return found, nil
	}
	return nil, fmt.Errorf("fn[%s]: no unique top-level function found", idOrName)
}
