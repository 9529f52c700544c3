package source

import (
	"fmt"
	"io"
	"maps"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jwkaltz/gravitas/pkg/errors"
	"github.com/jwkaltz/gravitas/pkg/graph"
)

// ReadDOT parses a graph in Graphviz DOT notation into a snapshot.
//
// The supported grammar is the subset that matters for snapshot input:
//
//	[strict] (graph | digraph) [name] { statements }
//
// Statements are node declarations ("a [size=12]"), edge chains
// ("a -> b -> c [weight=2]", with "--" in undirected graphs), attribute
// defaults ("node [size=8]", applied to nodes declared afterwards),
// subgraphs (flattened, their nodes and edges join the parent graph) and
// "key=value" assignments (ignored). Line comments (// and #) and block
// comments are skipped. Identifiers may be quoted; ports ("a:ne") are
// accepted and discarded.
//
// Recognized attributes are "size" and "fixed" on nodes and "weight" on
// edges; an edge without a weight attribute gets weight 1. All other
// attributes are carried verbatim in the node or edge payload. Endpoints of
// an edge that were never declared are created implicitly, in order of first
// appearance.
//
// Syntax errors return [errors.ErrCodeInvalidFormat] with line:column
// positions; structural violations found after parsing return
// [errors.ErrCodeInvalidSnapshot]. ReadDOT does not close r.
func ReadDOT(r io.Reader) (*graph.Snapshot, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read DOT input")
	}
	return parseDOT(src)
}

// maxDotErrors bounds error accumulation so pathological inputs fail fast
// instead of producing one error per byte.
const maxDotErrors = 10

func parseDOT(src []byte) (*graph.Snapshot, error) {
	p := &dotParser{
		sc:           newDotScanner(src),
		snap:         &graph.Snapshot{},
		index:        make(map[string]int),
		nodeDefaults: make(map[string]string),
		edgeDefaults: make(map[string]string),
	}
	p.next()
	p.parseGraph()
	if len(p.errs) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "parse DOT: %s", strings.Join(p.errs, "; "))
	}
	if err := p.snap.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "invalid snapshot")
	}
	return p.snap, nil
}

// =============================================================================
// Scanner
// =============================================================================

type dotToken int

const (
	dotEOF dotToken = iota
	dotIdent
	dotString
	dotLBrace
	dotRBrace
	dotLBracket
	dotRBracket
	dotEqual
	dotSemi
	dotComma
	dotColon
	dotEdgeOp // "--" or "->"
	dotIllegal
)

// dotScanner walks the source rune by rune, tracking line and column for
// error positions.
type dotScanner struct {
	src      []byte
	ch       rune // current rune, -1 at EOF
	offset   int
	rdOffset int
	line     int
	col      int
}

func newDotScanner(src []byte) *dotScanner {
	s := &dotScanner{src: src, line: 1}
	s.next()
	return s
}

func (s *dotScanner) next() {
	if s.rdOffset >= len(s.src) {
		s.offset = len(s.src)
		s.ch = -1
		return
	}
	if s.ch == '\n' {
		s.line++
		s.col = 0
	}
	r, w := utf8.DecodeRune(s.src[s.rdOffset:])
	s.offset = s.rdOffset
	s.rdOffset += w
	s.ch = r
	s.col++
}

func (s *dotScanner) peek() rune {
	if s.rdOffset >= len(s.src) {
		return -1
	}
	r, _ := utf8.DecodeRune(s.src[s.rdOffset:])
	return r
}

func (s *dotScanner) skipSpace() {
	for s.ch == ' ' || s.ch == '\t' || s.ch == '\r' || s.ch == '\n' {
		s.next()
	}
}

func (s *dotScanner) skipLine() {
	for s.ch != '\n' && s.ch != -1 {
		s.next()
	}
}

// skipBlockComment consumes up to and including the closing "*/". It reports
// false when the comment runs to EOF.
func (s *dotScanner) skipBlockComment() bool {
	for s.ch != -1 {
		if s.ch == '*' && s.peek() == '/' {
			s.next()
			s.next()
			return true
		}
		s.next()
	}
	return false
}

func isDotIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || ch >= utf8.RuneSelf
}

func isDotIdentChar(ch rune) bool {
	return isDotIdentStart(ch) || unicode.IsDigit(ch)
}

func isDotDigit(ch rune) bool { return '0' <= ch && ch <= '9' }

func (s *dotScanner) scanIdent() string {
	start := s.offset
	for isDotIdentChar(s.ch) {
		s.next()
	}
	return string(s.src[start:s.offset])
}

// scanNumber scans numerals like 12, -3, 1.5 and -.5. Numbers are ordinary
// identifiers in DOT.
func (s *dotScanner) scanNumber() string {
	start := s.offset
	if s.ch == '-' {
		s.next()
	}
	for isDotDigit(s.ch) {
		s.next()
	}
	if s.ch == '.' {
		s.next()
		for isDotDigit(s.ch) {
			s.next()
		}
	}
	return string(s.src[start:s.offset])
}

// scanString scans a double-quoted string, the opening quote already
// consumed. It reports false when the string is unterminated.
func (s *dotScanner) scanString() (string, bool) {
	var sb strings.Builder
	for {
		if s.ch == -1 || s.ch == '\n' {
			return sb.String(), false
		}
		if s.ch == '"' {
			s.next()
			return sb.String(), true
		}
		if s.ch == '\\' {
			s.next()
			switch s.ch {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			default:
				// Covers \" and \\ and passes unknown escapes through.
				sb.WriteRune(s.ch)
			}
		} else {
			sb.WriteRune(s.ch)
		}
		s.next()
	}
}

// scanHTML scans an angle-bracket string like <<b>hub</b>>, the opening
// bracket already consumed. Nesting is tracked by depth.
func (s *dotScanner) scanHTML() (string, bool) {
	var sb strings.Builder
	depth := 1
	for {
		switch s.ch {
		case -1:
			return sb.String(), false
		case '<':
			depth++
			sb.WriteRune(s.ch)
		case '>':
			depth--
			if depth == 0 {
				s.next()
				return sb.String(), true
			}
			sb.WriteRune(s.ch)
		default:
			sb.WriteRune(s.ch)
		}
		s.next()
	}
}

func (s *dotScanner) scan() (line, col int, tok dotToken, lit string) {
	for {
		s.skipSpace()
		if s.ch == '/' && s.peek() == '/' {
			s.skipLine()
			continue
		}
		if s.ch == '#' {
			s.skipLine()
			continue
		}
		if s.ch == '/' && s.peek() == '*' {
			line, col = s.line, s.col
			s.next()
			s.next()
			if !s.skipBlockComment() {
				return line, col, dotIllegal, "unterminated block comment"
			}
			continue
		}
		break
	}

	line, col = s.line, s.col
	switch {
	case s.ch == -1:
		return line, col, dotEOF, ""

	case s.ch == '-' && (s.peek() == '-' || s.peek() == '>'):
		lit = "--"
		if s.peek() == '>' {
			lit = "->"
		}
		s.next()
		s.next()
		return line, col, dotEdgeOp, lit

	case isDotDigit(s.ch),
		s.ch == '-' && (isDotDigit(s.peek()) || s.peek() == '.'),
		s.ch == '.' && isDotDigit(s.peek()):
		return line, col, dotIdent, s.scanNumber()

	case isDotIdentStart(s.ch):
		return line, col, dotIdent, s.scanIdent()

	case s.ch == '"':
		s.next()
		str, ok := s.scanString()
		if !ok {
			return line, col, dotIllegal, "unterminated string"
		}
		return line, col, dotString, str

	case s.ch == '<':
		s.next()
		str, ok := s.scanHTML()
		if !ok {
			return line, col, dotIllegal, "unterminated HTML string"
		}
		return line, col, dotString, str
	}

	ch := s.ch
	s.next()
	switch ch {
	case '{':
		return line, col, dotLBrace, "{"
	case '}':
		return line, col, dotRBrace, "}"
	case '[':
		return line, col, dotLBracket, "["
	case ']':
		return line, col, dotRBracket, "]"
	case '=':
		return line, col, dotEqual, "="
	case ';':
		return line, col, dotSemi, ";"
	case ',':
		return line, col, dotComma, ","
	case ':':
		return line, col, dotColon, ":"
	}
	return line, col, dotIllegal, fmt.Sprintf("unexpected character %q", ch)
}

// =============================================================================
// Parser
// =============================================================================

// dotParser builds a snapshot directly from the token stream. Attribute
// defaults from "node [...]" and "edge [...]" statements apply to nodes and
// edges declared after them, in document order; subgraph scoping is not
// tracked.
type dotParser struct {
	sc   *dotScanner
	tok  dotToken
	lit  string
	line int
	col  int

	directed     bool
	snap         *graph.Snapshot
	index        map[string]int // node ID -> position in snap.Nodes
	nodeDefaults map[string]string
	edgeDefaults map[string]string
	errs         []string
}

func (p *dotParser) next() {
	for {
		p.line, p.col, p.tok, p.lit = p.sc.scan()
		if p.tok != dotIllegal {
			return
		}
		p.errorf(p.line, p.col, "%s", p.lit)
	}
}

func (p *dotParser) errorf(line, col int, format string, args ...any) {
	p.errs = append(p.errs, fmt.Sprintf("%d:%d: %s", line, col, fmt.Sprintf(format, args...)))
}

func (p *dotParser) describe() string {
	if p.tok == dotEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", p.lit)
}

func (p *dotParser) expect(tok dotToken, what string) {
	if p.tok != tok {
		p.errorf(p.line, p.col, "expected %s, got %s", what, p.describe())
		return
	}
	p.next()
}

// keyword returns the lowercased literal when the current token is an
// unquoted identifier, and "" otherwise. Quoted identifiers are never
// keywords.
func (p *dotParser) keyword() string {
	if p.tok != dotIdent {
		return ""
	}
	return strings.ToLower(p.lit)
}

func (p *dotParser) parseGraph() {
	if p.keyword() == "strict" {
		p.next()
	}
	switch p.keyword() {
	case "digraph":
		p.directed = true
		p.next()
	case "graph":
		p.next()
	default:
		p.errorf(p.line, p.col, "expected 'graph' or 'digraph', got %s", p.describe())
		return
	}
	// Graph name, if any, has no snapshot equivalent.
	if p.tok == dotIdent || p.tok == dotString {
		p.next()
	}
	p.expect(dotLBrace, "'{'")
	p.parseStatements()
	p.expect(dotRBrace, "'}'")
	if p.tok != dotEOF && len(p.errs) == 0 {
		p.errorf(p.line, p.col, "unexpected %s after graph", p.describe())
	}
}

func (p *dotParser) parseStatements() {
	for p.tok != dotRBrace && p.tok != dotEOF {
		if len(p.errs) >= maxDotErrors {
			p.errs = append(p.errs, "too many errors")
			for p.tok != dotEOF {
				p.next()
			}
			return
		}
		p.parseStatement()
	}
}

func (p *dotParser) parseStatement() {
	switch {
	case p.tok == dotSemi:
		p.next()

	case p.tok == dotLBrace:
		// Anonymous subgraph: contents join the parent graph.
		p.next()
		p.parseStatements()
		p.expect(dotRBrace, "'}'")

	case p.keyword() == "subgraph":
		p.next()
		if p.tok == dotIdent || p.tok == dotString {
			p.next()
		}
		p.expect(dotLBrace, "'{'")
		p.parseStatements()
		p.expect(dotRBrace, "'}'")

	case p.keyword() == "node":
		p.next()
		maps.Copy(p.nodeDefaults, p.parseAttrList())

	case p.keyword() == "edge":
		p.next()
		maps.Copy(p.edgeDefaults, p.parseAttrList())

	case p.keyword() == "graph":
		p.next()
		p.parseAttrList() // graph-level attributes have no snapshot equivalent

	case p.tok == dotIdent || p.tok == dotString:
		p.parseNodeOrEdge()

	default:
		p.errorf(p.line, p.col, "unexpected %s", p.describe())
		p.next()
	}
}

// parseNodeOrEdge handles the three statements that start with an
// identifier: "key=value" assignments, edge chains and node declarations.
func (p *dotParser) parseNodeOrEdge() {
	id := p.lit
	line, col := p.line, p.col
	p.next()
	p.skipPort()

	if p.tok == dotEqual {
		p.next()
		if p.tok == dotIdent || p.tok == dotString {
			p.next()
		} else {
			p.errorf(p.line, p.col, "expected value after '=', got %s", p.describe())
		}
		return
	}

	if p.tok == dotEdgeOp {
		p.declareNode(id, nil, line, col)
		p.parseEdgeChain(id)
		return
	}

	attrs := p.parseAttrList()
	p.declareNode(id, attrs, line, col)
}

// parseEdgeChain parses the remainder of "first -> b -> c [attrs]". A
// trailing attribute list applies to every edge in the chain.
func (p *dotParser) parseEdgeChain(first string) {
	ids := []string{first}
	for p.tok == dotEdgeOp {
		op := p.lit
		opLine, opCol := p.line, p.col
		p.next()

		if p.directed && op == "--" {
			p.errorf(opLine, opCol, "undirected edge '--' in digraph")
		} else if !p.directed && op == "->" {
			p.errorf(opLine, opCol, "directed edge '->' in graph")
		}

		if p.tok == dotLBrace || p.keyword() == "subgraph" {
			p.errorf(p.line, p.col, "subgraph edge endpoints are not supported")
			break
		}
		if p.tok != dotIdent && p.tok != dotString {
			p.errorf(p.line, p.col, "expected node after %q, got %s", op, p.describe())
			break
		}
		p.declareNode(p.lit, nil, p.line, p.col)
		ids = append(ids, p.lit)
		p.next()
		p.skipPort()
	}

	aLine, aCol := p.line, p.col
	attrs := p.parseAttrList()

	weight := 1.0
	if val, ok := lookupAttr(attrs, p.edgeDefaults, "weight"); ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			p.errorf(aLine, aCol, "invalid edge weight %q", val)
		} else {
			weight = f
		}
	}

	for i := 0; i+1 < len(ids); i++ {
		p.snap.Edges = append(p.snap.Edges, graph.SnapshotEdge{
			SourceID: ids[i],
			TargetID: ids[i+1],
			Weight:   weight,
			Payload:  edgePayload(attrs, p.edgeDefaults),
		})
	}
}

// skipPort discards ":port" and ":port:compass" suffixes. Ports address
// node regions for drawing and have no layout meaning.
func (p *dotParser) skipPort() {
	for p.tok == dotColon {
		p.next()
		if p.tok == dotIdent || p.tok == dotString {
			p.next()
		} else {
			p.errorf(p.line, p.col, "expected port name after ':', got %s", p.describe())
			return
		}
	}
}

// parseAttrList parses zero or more bracketed attribute lists and merges
// them left to right. It returns nil when the next token is not '['.
func (p *dotParser) parseAttrList() map[string]string {
	if p.tok != dotLBracket {
		return nil
	}
	attrs := make(map[string]string)
	for p.tok == dotLBracket {
		p.next()
		for p.tok == dotIdent || p.tok == dotString {
			key := p.lit
			p.next()
			val := "true"
			if p.tok == dotEqual {
				p.next()
				if p.tok == dotIdent || p.tok == dotString {
					val = p.lit
					p.next()
				} else {
					p.errorf(p.line, p.col, "expected value after '=', got %s", p.describe())
				}
			}
			attrs[key] = val
			if p.tok == dotSemi || p.tok == dotComma {
				p.next()
			}
		}
		p.expect(dotRBracket, "']'")
	}
	return attrs
}

// declareNode creates the node on first sight, applying node defaults then
// attrs; later declarations of the same ID merge their attributes in.
func (p *dotParser) declareNode(id string, attrs map[string]string, line, col int) {
	i, ok := p.index[id]
	if !ok {
		i = len(p.snap.Nodes)
		p.index[id] = i
		p.snap.Nodes = append(p.snap.Nodes, graph.SnapshotNode{ID: id})
		p.applyNodeAttrs(&p.snap.Nodes[i], p.nodeDefaults, line, col)
	}
	p.applyNodeAttrs(&p.snap.Nodes[i], attrs, line, col)
}

func (p *dotParser) applyNodeAttrs(n *graph.SnapshotNode, attrs map[string]string, line, col int) {
	for key, val := range attrs {
		switch key {
		case "size":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 {
				p.errorf(line, col, "node %s: invalid size %q", n.ID, val)
				continue
			}
			n.Size = f
		case "fixed":
			b, err := strconv.ParseBool(val)
			if err != nil {
				p.errorf(line, col, "node %s: invalid fixed value %q", n.ID, val)
				continue
			}
			n.Fixed = b
		default:
			pl, _ := n.Payload.(map[string]string)
			if pl == nil {
				pl = make(map[string]string)
				n.Payload = pl
			}
			pl[key] = val
		}
	}
}

// lookupAttr resolves key from explicit attrs first, then defaults.
func lookupAttr(attrs, defaults map[string]string, key string) (string, bool) {
	if val, ok := attrs[key]; ok {
		return val, true
	}
	val, ok := defaults[key]
	return val, ok
}

// edgePayload merges defaults and explicit attrs minus the weight attribute,
// returning nil when nothing remains. Each edge gets its own map so snapshot
// consumers never share payload state across edges.
func edgePayload(attrs, defaults map[string]string) any {
	var pl map[string]string
	for _, src := range [2]map[string]string{defaults, attrs} {
		for key, val := range src {
			if key == "weight" {
				continue
			}
			if pl == nil {
				pl = make(map[string]string)
			}
			pl[key] = val
		}
	}
	if pl == nil {
		return nil
	}
	return pl
}
