package complextype

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var typeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[a-z_$@][a-z0-9_$@\-\.]*`},
	{Name: "Punct", Pattern: `[<>(),:]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// typeExpr is one type signature. Alternatives are tried in order; scalar
// comes last so keywords used as plain names still parse.
type typeExpr struct {
	Array  *arrayType  `parser:"  @@"`
	Map    *mapType    `parser:"| @@"`
	Struct *structType `parser:"| @@"`
	Union  *unionType  `parser:"| @@"`
	Scalar *scalarType `parser:"| @@"`
}

type arrayType struct {
	Element *typeExpr `parser:"'array' '<' @@ '>'"`
}

type mapType struct {
	Key   *typeExpr `parser:"'map' '<' @@ ','"`
	Value *typeExpr `parser:"@@ '>'"`
}

type structType struct {
	Fields []*structField `parser:"'struct' '<' @@ ( ',' @@ )* '>'"`
}

type structField struct {
	Name string    `parser:"( @Ident ':' )?"`
	Type *typeExpr `parser:"@@"`
}

type unionType struct {
	Members []*typeExpr `parser:"'uniontype' '<' @@ ( ',' @@ )* '>'"`
}

type scalarType struct {
	Words  []string `parser:"@Ident+"`
	Params []string `parser:"( '(' @(Number | Ident) ( ',' @(Number | Ident) )* ')' )?"`
}

var parser = participle.MustBuild[typeExpr](
	participle.Lexer(typeLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(8),
)

// String renders the expression in canonical form.
func (e *typeExpr) String() string {
	var b strings.Builder
	e.render(&b)
	return b.String()
}

func (e *typeExpr) render(b *strings.Builder) {
	switch {
	case e.Array != nil:
		b.WriteString("array<")
		e.Array.Element.render(b)
		b.WriteString(">")
	case e.Map != nil:
		b.WriteString("map<")
		e.Map.Key.render(b)
		b.WriteString(",")
		e.Map.Value.render(b)
		b.WriteString(">")
	case e.Struct != nil:
		b.WriteString("struct<")
		for i, f := range e.Struct.Fields {
			if i > 0 {
				b.WriteString(",")
			}
			if f.Name != "" {
				b.WriteString(f.Name)
				b.WriteString(":")
			}
			f.Type.render(b)
		}
		b.WriteString(">")
	case e.Union != nil:
		b.WriteString("uniontype<")
		for i, m := range e.Union.Members {
			if i > 0 {
				b.WriteString(",")
			}
			m.render(b)
		}
		b.WriteString(">")
	case e.Scalar != nil:
		b.WriteString(strings.Join(e.Scalar.Words, " "))
		if len(e.Scalar.Params) > 0 {
			b.WriteString("(")
			b.WriteString(strings.Join(e.Scalar.Params, ","))
			b.WriteString(")")
		}
	}
}
