package pattern

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var patternLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[\w$]+(?:\.[\w$]+)*`},
	{Name: "Punct", Pattern: `[-!*:,()\[\]{}<>]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// nodeAST 接受 "(:A:B{...})" 与 "A:B{...}" 两种写法。
type nodeAST struct {
	Cypher *cypherNode `  @@`
	Simple *simpleNode `| @@`
}

type cypherNode struct {
	Labels []string    `"(" ( ":" @Ident )+`
	Specs  []*propSpec `"{" @@ ( "," @@ )* "}" ")"`
}

type simpleNode struct {
	Labels []string    `@Ident ( ":" @Ident )*`
	Specs  []*propSpec `"{" @@ ( "," @@ )* "}"`
}

type propSpec struct {
	Key     string `  "!" @Ident`
	Exclude string `| "-" @Ident`
	All     bool   `| @"*"`
	Include string `| @Ident`
}

// relAST 接受 "(n)-[:T{...}]->(m)"、"(n)<-[:T]-(m)" 以及 "A{!a} T{...} B{!b}"。
type relAST struct {
	Cypher *cypherRel `  @@`
	Simple *simpleRel `| @@`
}

type cypherRel struct {
	Left     *cypherNode `@@`
	Incoming bool        `@"<"? "-"`
	Rel      *relBody    `"[" @@ "]"`
	Outgoing bool        `"-" @">"?`
	Right    *cypherNode `@@`
}

type relBody struct {
	Type  string      `":" @Ident`
	Specs []*propSpec `( "{" @@ ( "," @@ )* "}" )?`
}

type simpleRel struct {
	Left  *simpleNode `@@`
	Type  string      `@Ident`
	Specs []*propSpec `( "{" @@ ( "," @@ )* "}" )?`
	Right *simpleNode `@@`
}

var (
	nodeParser = participle.MustBuild[nodeAST](
		participle.Lexer(patternLexer),
		participle.Elide("Whitespace"),
	)
	relParser = participle.MustBuild[relAST](
		participle.Lexer(patternLexer),
		participle.Elide("Whitespace"),
	)
)

func (n *nodeAST) parts() ([]string, []*propSpec) {
	if n.Cypher != nil {
		return n.Cypher.Labels, n.Cypher.Specs
	}
	return n.Simple.Labels, n.Simple.Specs
}
