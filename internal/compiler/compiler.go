// Package compiler implements lumen's single-pass compiler: scanning,
// Pratt-precedence parsing, local/upvalue resolution, and bytecode
// emission are fused into one pass with no intermediate AST, per
// spec.md §4.2.
package compiler

import (
	"strconv"

	"github.com/lumenscript/lumen/internal/bytecode"
	"github.com/lumenscript/lumen/internal/heap"
	"github.com/lumenscript/lumen/internal/lexer"
	"github.com/lumenscript/lumen/internal/token"
)

type funcType uint8

const (
	typeScript funcType = iota
	typeFunction
	typeMethod
	typeInitializer
)

// local is one entry of a funcCompiler's fixed-size local-variable
// stack. Depth -1 marks a declared-but-not-yet-initialized local,
// which namedVariable rejects (the "can't read a local in its own
// initializer" rule).
type local struct {
	name       token.Token
	depth      int
	isCaptured bool
}

type upvalueDesc struct {
	index   byte
	isLocal bool
}

// funcCompiler tracks compilation state for one function body. A new
// one is pushed for the top-level script and for every nested
// function/method/initializer; it is popped when that body's closing
// brace (or EOF, for the script) is reached.
type funcCompiler struct {
	enclosing  *funcCompiler
	function   *heap.Function
	funcType   funcType
	locals     []local
	scopeDepth int
	upvalues   []upvalueDesc
}

// classCompiler tracks the innermost enclosing class while compiling
// its method bodies, so `this`/`super` can be validated and `super`
// can be resolved against the right synthetic local.
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// Parser drives the fused scan/parse/emit pass. It is itself a
// heap.RootProvider while active, so a GC cycle triggered mid-compile
// (by an allocation the compiler itself makes, such as interning a
// string constant) can still find every in-progress Function.
type Parser struct {
	lex  *lexer.Lexer
	heap *heap.Heap

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errors    []*Error

	compiler *funcCompiler
	class    *classCompiler
}

// Compile compiles source into a top-level script Function, or returns
// the accumulated diagnostics if compilation failed.
func Compile(source string, h *heap.Heap) (*heap.Function, []*Error) {
	p := &Parser{lex: lexer.New(source)}
	p.heap = h
	p.pushCompiler(typeScript, "")

	h.RegisterRoot(p)
	defer h.UnregisterRoot(p)

	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}
	fn := p.endFuncCompiler()

	if p.hadError {
		return nil, p.errors
	}
	return fn, nil
}

// MarkRoots marks every Function in the active compiler chain, since a
// function under construction isn't reachable from anywhere else yet.
func (p *Parser) MarkRoots(h *heap.Heap) {
	for c := p.compiler; c != nil; c = c.enclosing {
		h.MarkObject(c.function)
	}
}

// --- token stream -----------------------------------------------------

func (p *Parser) advance() {
	p.previous = p.current
	for {
		p.current = p.lex.NextToken()
		if p.current.Type != token.Error {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *Parser) check(t token.Type) bool {
	return p.current.Type == t
}

func (p *Parser) match(t token.Type) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(t token.Type, msg string) {
	if p.current.Type == t {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

// --- error reporting + panic-mode recovery ----------------------------

func (p *Parser) errorAt(tok token.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true
	lexeme := tok.Lexeme
	if tok.Type == token.EOF || tok.Type == token.Error {
		lexeme = ""
	}
	p.errors = append(p.errors, &Error{Line: tok.Line, Lexeme: lexeme, AtEnd: tok.Type == token.EOF, Message: msg})
}

func (p *Parser) error(msg string)        { p.errorAt(p.previous, msg) }
func (p *Parser) errorAtCurrent(msg string) { p.errorAt(p.current, msg) }

func (p *Parser) synchronize() {
	p.panicMode = false
	for p.current.Type != token.EOF {
		if p.previous.Type == token.Semicolon {
			return
		}
		switch p.current.Type {
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		p.advance()
	}
}

// --- bytecode emission -------------------------------------------------

func (p *Parser) currentChunk() *heap.Chunk {
	return &p.compiler.function.Chunk
}

func (p *Parser) emitByte(b byte) {
	p.currentChunk().Write(b, p.previous.Line)
}

func (p *Parser) emitBytes(a, b byte) {
	p.emitByte(a)
	p.emitByte(b)
}

func (p *Parser) emit24(idx int) {
	p.emitByte(byte(idx >> 16))
	p.emitByte(byte(idx >> 8))
	p.emitByte(byte(idx))
}

// emitIndexedOp picks the short (1-byte operand) or long (3-byte
// big-endian operand) opcode form depending on whether idx fits in a
// byte, per spec.md §4.2's operand-width rule.
func (p *Parser) emitIndexedOp(short, long bytecode.Op, idx int) {
	if idx < 256 {
		p.emitBytes(byte(short), byte(idx))
	} else {
		p.emitByte(byte(long))
		p.emit24(idx)
	}
}

func (p *Parser) emitInvoke(short, long bytecode.Op, idx int, argCount byte) {
	p.emitIndexedOp(short, long, idx)
	p.emitByte(argCount)
}

func (p *Parser) makeConstant(v heap.Value) int {
	idx := p.currentChunk().AddConstant(v)
	if idx > 0xFFFFFF {
		p.error("Too many constants in one chunk.")
		return 0
	}
	return idx
}

func (p *Parser) emitConstant(v heap.Value) {
	p.emitIndexedOp(bytecode.OpConstant, bytecode.OpConstantLong, p.makeConstant(v))
}

func (p *Parser) identifierConstant(name token.Token) int {
	str := p.heap.NewString(name.Lexeme)
	return p.makeConstant(heap.FromObject(str))
}

func (p *Parser) emitJump(op bytecode.Op) int {
	p.emitByte(byte(op))
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.currentChunk().Code) - 2
}

func (p *Parser) patchJump(offset int) {
	jump := len(p.currentChunk().Code) - offset - 2
	if jump > 0xffff {
		p.error("Too much code to jump over.")
	}
	p.currentChunk().Code[offset] = byte((jump >> 8) & 0xff)
	p.currentChunk().Code[offset+1] = byte(jump & 0xff)
}

func (p *Parser) emitLoop(loopStart int) {
	p.emitByte(byte(bytecode.OpLoop))
	offset := len(p.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		p.error("Loop body too large.")
	}
	p.emitByte(byte((offset >> 8) & 0xff))
	p.emitByte(byte(offset & 0xff))
}

func (p *Parser) emitReturn() {
	if p.compiler.funcType == typeInitializer {
		p.emitBytes(byte(bytecode.OpGetLocal), 0)
	} else {
		p.emitByte(byte(bytecode.OpNil))
	}
	p.emitByte(byte(bytecode.OpReturn))
}

// --- compiler (function scope) stack -----------------------------------

func (p *Parser) pushCompiler(ft funcType, name string) {
	c := &funcCompiler{enclosing: p.compiler, funcType: ft}
	c.function = p.heap.NewFunction()
	if name != "" {
		c.function.Name = p.heap.NewString(name)
	}
	slotName := ""
	if ft == typeMethod || ft == typeInitializer {
		slotName = "this"
	}
	c.locals = append(c.locals, local{name: token.Token{Lexeme: slotName}, depth: 0})
	p.compiler = c
}

func (p *Parser) endFuncCompiler() *heap.Function {
	p.emitReturn()
	fn := p.compiler.function
	fn.UpvalueCount = len(p.compiler.upvalues)
	p.compiler = p.compiler.enclosing
	return fn
}

func (p *Parser) beginScope() { p.compiler.scopeDepth++ }

func (p *Parser) endScope() {
	p.compiler.scopeDepth--
	for len(p.compiler.locals) > 0 && p.compiler.locals[len(p.compiler.locals)-1].depth > p.compiler.scopeDepth {
		last := p.compiler.locals[len(p.compiler.locals)-1]
		if last.isCaptured {
			p.emitByte(byte(bytecode.OpCloseUpvalue))
		} else {
			p.emitByte(byte(bytecode.OpPop))
		}
		p.compiler.locals = p.compiler.locals[:len(p.compiler.locals)-1]
	}
}

// --- variable declaration/resolution ------------------------------------

func (p *Parser) declareVariable() {
	if p.compiler.scopeDepth == 0 {
		return
	}
	name := p.previous
	for i := len(p.compiler.locals) - 1; i >= 0; i-- {
		l := p.compiler.locals[i]
		if l.depth != -1 && l.depth < p.compiler.scopeDepth {
			break
		}
		if l.name.Lexeme == name.Lexeme {
			p.error("Already a variable with this name in this scope.")
		}
	}
	p.addLocal(name)
}

func (p *Parser) addLocal(name token.Token) {
	if len(p.compiler.locals) >= 256 {
		p.error("Too many local variables in function.")
		return
	}
	p.compiler.locals = append(p.compiler.locals, local{name: name, depth: -1})
}

func (p *Parser) parseVariable(msg string) int {
	p.consume(token.Identifier, msg)
	p.declareVariable()
	if p.compiler.scopeDepth > 0 {
		return -1
	}
	return p.identifierConstant(p.previous)
}

func (p *Parser) markInitialized() {
	if p.compiler.scopeDepth == 0 {
		return
	}
	p.compiler.locals[len(p.compiler.locals)-1].depth = p.compiler.scopeDepth
}

func (p *Parser) defineVariable(global int) {
	if p.compiler.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitIndexedOp(bytecode.OpDefineGlobal, bytecode.OpDefineGlobalLong, global)
}

// resolveLocal returns the slot index of the innermost local named
// name, or -1. It does NOT check for the self-initializer case (reading
// depth == -1) so this can double as the lookup resolveUpvalue uses
// against an enclosing compiler; namedVariable checks depth itself.
func resolveLocal(c *funcCompiler, name token.Token) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name.Lexeme == name.Lexeme {
			return i
		}
	}
	return -1
}

func resolveUpvalue(c *funcCompiler, name token.Token) int {
	if c.enclosing == nil {
		return -1
	}
	if local := resolveLocal(c.enclosing, name); local != -1 {
		c.enclosing.locals[local].isCaptured = true
		return addUpvalue(c, byte(local), true)
	}
	if up := resolveUpvalue(c.enclosing, name); up != -1 {
		return addUpvalue(c, byte(up), false)
	}
	return -1
}

func addUpvalue(c *funcCompiler, index byte, isLocal bool) int {
	for i, uv := range c.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(c.upvalues) >= 256 {
		return 0
	}
	c.upvalues = append(c.upvalues, upvalueDesc{index: index, isLocal: isLocal})
	c.function.UpvalueCount = len(c.upvalues)
	return len(c.upvalues) - 1
}

func (p *Parser) namedVariable(name token.Token, canAssign bool) {
	if arg := resolveLocal(p.compiler, name); arg != -1 {
		if p.compiler.locals[arg].depth == -1 {
			p.error("Can't read local variable in its own initializer.")
		}
		if canAssign && p.match(token.Equal) {
			p.expression()
			p.emitBytes(byte(bytecode.OpSetLocal), byte(arg))
		} else {
			p.emitBytes(byte(bytecode.OpGetLocal), byte(arg))
		}
		return
	}
	if arg := resolveUpvalue(p.compiler, name); arg != -1 {
		if canAssign && p.match(token.Equal) {
			p.expression()
			p.emitBytes(byte(bytecode.OpSetUpvalue), byte(arg))
		} else {
			p.emitBytes(byte(bytecode.OpGetUpvalue), byte(arg))
		}
		return
	}
	global := p.identifierConstant(name)
	if canAssign && p.match(token.Equal) {
		p.expression()
		p.emitIndexedOp(bytecode.OpSetGlobal, bytecode.OpSetGlobalLong, global)
	} else {
		p.emitIndexedOp(bytecode.OpGetGlobal, bytecode.OpGetGlobalLong, global)
	}
}

func syntheticToken(text string, line int) token.Token {
	return token.Token{Type: token.Identifier, Lexeme: text, Line: line}
}

// --- declarations --------------------------------------------------------

func (p *Parser) declaration() {
	switch {
	case p.match(token.Class):
		p.classDeclaration()
	case p.match(token.Fun):
		p.funDeclaration()
	case p.match(token.Var):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")
	if p.match(token.Equal) {
		p.expression()
	} else {
		p.emitByte(byte(bytecode.OpNil))
	}
	p.consume(token.Semicolon, "Expect ';' after variable declaration.")
	p.defineVariable(global)
}

func (p *Parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.markInitialized()
	p.function(typeFunction)
	p.defineVariable(global)
}

func (p *Parser) function(ft funcType) {
	name := ""
	if ft != typeScript {
		name = p.previous.Lexeme
	}
	p.pushCompiler(ft, name)
	p.beginScope()

	p.consume(token.LeftParen, "Expect '(' after function name.")
	if !p.check(token.RightParen) {
		for {
			p.compiler.function.Arity++
			if p.compiler.function.Arity > 255 {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constIdx := p.parseVariable("Expect parameter name.")
			p.defineVariable(constIdx)
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.consume(token.RightParen, "Expect ')' after parameters.")
	p.consume(token.LeftBrace, "Expect '{' before function body.")
	p.block()

	upvalues := p.compiler.upvalues
	fn := p.endFuncCompiler()

	idx := p.makeConstant(heap.FromObject(fn))
	if idx >= 256 {
		p.error("Too many constants in one chunk.")
		idx = 0
	}
	p.emitByte(byte(bytecode.OpClosure))
	p.emitByte(byte(idx))
	for _, uv := range upvalues {
		if uv.isLocal {
			p.emitByte(1)
		} else {
			p.emitByte(0)
		}
		p.emitByte(uv.index)
	}
}

func (p *Parser) classDeclaration() {
	p.consume(token.Identifier, "Expect class name.")
	className := p.previous
	nameConst := p.identifierConstant(className)
	p.declareVariable()

	p.emitIndexedOp(bytecode.OpClass, bytecode.OpClassLong, nameConst)
	p.defineVariable(nameConst)

	cc := &classCompiler{enclosing: p.class}
	p.class = cc

	if p.match(token.Less) {
		p.consume(token.Identifier, "Expect superclass name.")
		p.variable(false)
		if p.previous.Lexeme == className.Lexeme {
			p.error("A class can't inherit from itself.")
		}
		p.beginScope()
		p.addLocal(syntheticToken("super", p.previous.Line))
		p.defineVariable(0)

		p.namedVariable(className, false)
		p.emitByte(byte(bytecode.OpInherit))
		cc.hasSuperclass = true
	}

	p.namedVariable(className, false)
	p.consume(token.LeftBrace, "Expect '{' before class body.")
	for !p.check(token.RightBrace) && !p.check(token.EOF) {
		p.method()
	}
	p.consume(token.RightBrace, "Expect '}' after class body.")
	p.emitByte(byte(bytecode.OpPop))

	if cc.hasSuperclass {
		p.endScope()
	}
	p.class = cc.enclosing
}

func (p *Parser) method() {
	p.consume(token.Identifier, "Expect method name.")
	nameConst := p.identifierConstant(p.previous)
	ft := typeMethod
	if p.previous.Lexeme == "init" {
		ft = typeInitializer
	}
	p.function(ft)
	p.emitIndexedOp(bytecode.OpMethod, bytecode.OpMethodLong, nameConst)
}

// --- statements ------------------------------------------------------------

func (p *Parser) statement() {
	switch {
	case p.match(token.Print):
		p.printStatement()
	case p.match(token.If):
		p.ifStatement()
	case p.match(token.Return):
		p.returnStatement()
	case p.match(token.While):
		p.whileStatement()
	case p.match(token.For):
		p.forStatement()
	case p.match(token.LeftBrace):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) block() {
	for !p.check(token.RightBrace) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RightBrace, "Expect '}' after block.")
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(token.Semicolon, "Expect ';' after value.")
	p.emitByte(byte(bytecode.OpPrint))
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(token.Semicolon, "Expect ';' after expression.")
	p.emitByte(byte(bytecode.OpPop))
}

func (p *Parser) returnStatement() {
	if p.compiler.funcType == typeScript {
		p.error("Can't return from top-level code.")
	}
	if p.match(token.Semicolon) {
		p.emitReturn()
		return
	}
	if p.compiler.funcType == typeInitializer {
		p.error("Can't return a value from an initializer.")
	}
	p.expression()
	p.consume(token.Semicolon, "Expect ';' after return value.")
	p.emitByte(byte(bytecode.OpReturn))
}

func (p *Parser) ifStatement() {
	p.consume(token.LeftParen, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RightParen, "Expect ')' after condition.")

	thenJump := p.emitJump(bytecode.OpJumpIfFalse)
	p.emitByte(byte(bytecode.OpPop))
	p.statement()

	elseJump := p.emitJump(bytecode.OpJump)
	p.patchJump(thenJump)
	p.emitByte(byte(bytecode.OpPop))

	if p.match(token.Else) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := len(p.currentChunk().Code)
	p.consume(token.LeftParen, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RightParen, "Expect ')' after condition.")

	exitJump := p.emitJump(bytecode.OpJumpIfFalse)
	p.emitByte(byte(bytecode.OpPop))
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitByte(byte(bytecode.OpPop))
}

func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(token.LeftParen, "Expect '(' after 'for'.")

	switch {
	case p.match(token.Semicolon):
	case p.match(token.Var):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.currentChunk().Code)
	exitJump := -1
	if !p.match(token.Semicolon) {
		p.expression()
		p.consume(token.Semicolon, "Expect ';' after loop condition.")
		exitJump = p.emitJump(bytecode.OpJumpIfFalse)
		p.emitByte(byte(bytecode.OpPop))
	}

	if !p.match(token.RightParen) {
		bodyJump := p.emitJump(bytecode.OpJump)
		incrementStart := len(p.currentChunk().Code)
		p.expression()
		p.emitByte(byte(bytecode.OpPop))
		p.consume(token.RightParen, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitByte(byte(bytecode.OpPop))
	}
	p.endScope()
}

// --- expressions -----------------------------------------------------------

func (p *Parser) expression() {
	p.parsePrecedence(precAssignment)
}

func (p *Parser) parsePrecedence(prec precedence) {
	p.advance()
	prefix := ruleFor(p.previous.Type).prefix
	if prefix == nil {
		p.error("Expect expression.")
		return
	}
	canAssign := prec <= precAssignment
	prefix(p, canAssign)

	for prec <= ruleFor(p.current.Type).precedence {
		p.advance()
		infix := ruleFor(p.previous.Type).infix
		infix(p, canAssign)
	}
}

func (p *Parser) number(canAssign bool) {
	v, _ := strconv.ParseFloat(p.previous.Lexeme, 64)
	p.emitConstant(heap.Number(v))
}

func (p *Parser) stringLit(canAssign bool) {
	lexeme := p.previous.Lexeme
	content := lexeme
	if len(lexeme) >= 2 {
		content = lexeme[1 : len(lexeme)-1]
	}
	str := p.heap.NewString(content)
	p.emitConstant(heap.FromObject(str))
}

func (p *Parser) literal(canAssign bool) {
	switch p.previous.Type {
	case token.False:
		p.emitByte(byte(bytecode.OpFalse))
	case token.True:
		p.emitByte(byte(bytecode.OpTrue))
	case token.Nil:
		p.emitByte(byte(bytecode.OpNil))
	}
}

func (p *Parser) grouping(canAssign bool) {
	p.expression()
	p.consume(token.RightParen, "Expect ')' after expression.")
}

func (p *Parser) unary(canAssign bool) {
	opType := p.previous.Type
	p.parsePrecedence(precUnary)
	switch opType {
	case token.Minus:
		p.emitByte(byte(bytecode.OpNegate))
	case token.Bang:
		p.emitByte(byte(bytecode.OpNot))
	}
}

func (p *Parser) binary(canAssign bool) {
	opType := p.previous.Type
	rule := ruleFor(opType)
	p.parsePrecedence(rule.precedence + 1)
	switch opType {
	case token.Plus:
		p.emitByte(byte(bytecode.OpAdd))
	case token.Minus:
		p.emitByte(byte(bytecode.OpSubtract))
	case token.Star:
		p.emitByte(byte(bytecode.OpMultiply))
	case token.Slash:
		p.emitByte(byte(bytecode.OpDivide))
	case token.EqualEqual:
		p.emitByte(byte(bytecode.OpEqual))
	case token.BangEqual:
		p.emitByte(byte(bytecode.OpNotEqual))
	case token.Greater:
		p.emitByte(byte(bytecode.OpGreater))
	case token.GreaterEqual:
		p.emitByte(byte(bytecode.OpGreaterEqual))
	case token.Less:
		p.emitByte(byte(bytecode.OpLess))
	case token.LessEqual:
		p.emitByte(byte(bytecode.OpLessEqual))
	}
}

func (p *Parser) and(canAssign bool) {
	endJump := p.emitJump(bytecode.OpJumpIfFalse)
	p.emitByte(byte(bytecode.OpPop))
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func (p *Parser) or(canAssign bool) {
	elseJump := p.emitJump(bytecode.OpJumpIfFalse)
	endJump := p.emitJump(bytecode.OpJump)
	p.patchJump(elseJump)
	p.emitByte(byte(bytecode.OpPop))
	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func (p *Parser) variable(canAssign bool) {
	p.namedVariable(p.previous, canAssign)
}

func (p *Parser) call(canAssign bool) {
	argCount := p.argumentList()
	p.emitBytes(byte(bytecode.OpCall), byte(argCount))
}

func (p *Parser) argumentList() int {
	count := 0
	if !p.check(token.RightParen) {
		for {
			p.expression()
			if count == 255 {
				p.error("Can't have more than 255 arguments.")
			}
			count++
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.consume(token.RightParen, "Expect ')' after arguments.")
	return count
}

func (p *Parser) dot(canAssign bool) {
	p.consume(token.Identifier, "Expect property name after '.'.")
	nameConst := p.identifierConstant(p.previous)

	switch {
	case canAssign && p.match(token.Equal):
		p.expression()
		p.emitIndexedOp(bytecode.OpSetProperty, bytecode.OpSetPropertyLong, nameConst)
	case p.match(token.LeftParen):
		argCount := p.argumentList()
		p.emitInvoke(bytecode.OpInvoke, bytecode.OpInvokeLong, nameConst, byte(argCount))
	default:
		p.emitIndexedOp(bytecode.OpGetProperty, bytecode.OpGetPropertyLong, nameConst)
	}
}

func (p *Parser) this_(canAssign bool) {
	if p.class == nil {
		p.error("Can't use 'this' outside of a class.")
		return
	}
	p.variable(false)
}

func (p *Parser) super_(canAssign bool) {
	line := p.previous.Line
	if p.class == nil {
		p.error("Can't use 'super' outside of a class.")
	} else if !p.class.hasSuperclass {
		p.error("Can't use 'super' in a class with no superclass.")
	}

	p.consume(token.Dot, "Expect '.' after 'super'.")
	p.consume(token.Identifier, "Expect superclass method name.")
	nameConst := p.identifierConstant(p.previous)

	p.namedVariable(syntheticToken("this", line), false)
	if p.match(token.LeftParen) {
		argCount := p.argumentList()
		p.namedVariable(syntheticToken("super", line), false)
		p.emitInvoke(bytecode.OpSuperInvoke, bytecode.OpSuperInvokeLong, nameConst, byte(argCount))
	} else {
		p.namedVariable(syntheticToken("super", line), false)
		p.emitIndexedOp(bytecode.OpGetSuper, bytecode.OpGetSuperLong, nameConst)
	}
}
