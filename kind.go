package ipld

import (
	"fmt"

	"github.com/distribution/ipld/codec"
)

// Kind is one of the nine data model kinds every value reduces to.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
	KindLink
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
	KindBytes:  "bytes",
	KindList:   "list",
	KindMap:    "map",
	KindLink:   "link",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// kindOfToken returns the kind of the value a token starts.
func kindOfToken(tk codec.Token) Kind {
	switch tk.Kind {
	case codec.TokenBool:
		return KindBool
	case codec.TokenInt, codec.TokenUint:
		return KindInt
	case codec.TokenFloat:
		return KindFloat
	case codec.TokenString:
		return KindString
	case codec.TokenBytes:
		return KindBytes
	case codec.TokenLink:
		return KindLink
	case codec.TokenListOpen:
		return KindList
	case codec.TokenMapOpen:
		return KindMap
	}
	return KindNull
}

// SchemaKind is the kind of a type as declared in a schema. It may differ
// from the data model kind the type is represented as; a struct with a tuple
// representation has schema kind Struct and data model kind List.
type SchemaKind uint8

const (
	SchemaKindNull SchemaKind = iota
	SchemaKindBool
	SchemaKindInt
	SchemaKindFloat
	SchemaKindString
	SchemaKindBytes
	SchemaKindList
	SchemaKindMap
	SchemaKindLink
	SchemaKindStruct
	SchemaKindEnum
	SchemaKindUnion
	SchemaKindCopy
	SchemaKindAny
)

var schemaKindNames = [...]string{
	SchemaKindNull:   "null",
	SchemaKindBool:   "bool",
	SchemaKindInt:    "int",
	SchemaKindFloat:  "float",
	SchemaKindString: "string",
	SchemaKindBytes:  "bytes",
	SchemaKindList:   "list",
	SchemaKindMap:    "map",
	SchemaKindLink:   "link",
	SchemaKindStruct: "struct",
	SchemaKindEnum:   "enum",
	SchemaKindUnion:  "union",
	SchemaKindCopy:   "copy",
	SchemaKindAny:    "any",
}

func (k SchemaKind) String() string {
	if int(k) < len(schemaKindNames) {
		return schemaKindNames[k]
	}
	return fmt.Sprintf("SchemaKind(%d)", uint8(k))
}

// Strategy is how a schema kind is laid out in the data model.
type Strategy uint8

const (
	// StrategyBasic represents a type as its own data model kind.
	StrategyBasic Strategy = iota
	StrategyMap
	StrategyTuple
	StrategyStringJoin
	StrategyStringPairs
	StrategyListPairs
	StrategyKeyed
	StrategyKinded
	StrategyEnvelope
	StrategyInline
	StrategyBytesPrefix
	StrategyInt
	StrategyString
)

var strategyNames = [...]string{
	StrategyBasic:       "basic",
	StrategyMap:         "map",
	StrategyTuple:       "tuple",
	StrategyStringJoin:  "stringjoin",
	StrategyStringPairs: "stringpairs",
	StrategyListPairs:   "listpairs",
	StrategyKeyed:       "keyed",
	StrategyKinded:      "kinded",
	StrategyEnvelope:    "envelope",
	StrategyInline:      "inline",
	StrategyBytesPrefix: "bytesprefix",
	StrategyInt:         "int",
	StrategyString:      "string",
}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("Strategy(%d)", uint8(s))
}
