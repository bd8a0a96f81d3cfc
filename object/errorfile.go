package object

import (
	"fmt"
	"strconv"

	"github.com/pryzma-lang/pryzma/text"
	"github.com/pryzma-lang/pryzma/token"
)

type Errors = []*Error

type ErrorCreator struct {
	Message     func(tok token.Token, args ...any) string
	Explanation func(errors Errors, pos int, tok token.Token, args ...any) string
}

// A map from error identifiers to functions that supply the corresponding
// error messages and explanations.
//
// Errors in the map are in alphabetical order of their identifiers.
//
// Major categories are asm, eval, import, init, lex, macro, parse, repl and
// sys.
//
// Two otherwise identical errors thrown in different places in the Go code
// must be assigned different identifiers, if only by suffixing /a, /b, etc
// to the identifier.
var ErrorCreatorMap = map[string]ErrorCreator{

	"asm/div": {
		Message: func(tok token.Token, args ...any) string {
			return "division fault in assembly block"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The 'idiv' instruction faults when the divisor is zero, or when the quotient " +
				"does not fit in 64 bits. The block was abandoned with no result."
		},
	},

	"asm/label": {
		Message: func(tok token.Token, args ...any) string {
			return "jump to undefined label '" + args[0].(string) + "'"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "A jump instruction names a label, and that label must be defined somewhere in the " +
				"same assembly block by writing the label name followed by a colon."
		},
	},

	"asm/mem/bounds": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("memory access at %v outside region of size %v", args[0], args[1])
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "An assembly block can only touch the memory region declared by its 'mem' clause " +
				"(or the default region size if there is no clause). Reads and writes outside it, " +
				"including those made by 'push' and 'pop', abandon the block with no result, so " +
				"nothing the block did can leak out."
		},
	},

	"asm/mem/size": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("declared memory size %v exceeds the limit of %v bytes", args[0], args[1])
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The 'mem' clause of an assembly block says how many bytes of memory the block " +
				"gets. It has to be a sensible amount: the interpreter refuses to reserve more " +
				"than the limit shown, and a negative size means nothing at all."
		},
	},

	"asm/opcode": {
		Message: func(tok token.Token, args ...any) string {
			return "unsupported instruction '" + args[0].(string) + "'"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "Assembly blocks support a fixed subset of x86_64: mov, add, sub, inc, dec, neg, " +
				"not, and, or, xor, shl, shr, imul, idiv, cmp, test, the jumps, push, pop and nop. " +
				"Anything else is reported at the point of declaration rather than silently ignored."
		},
	},

	"asm/operand": {
		Message: func(tok token.Token, args ...any) string {
			return "malformed operand for '" + args[0].(string) + "'"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "Operands are registers, integer immediates, or memory references of the form " +
				"'[reg]' or '[reg+disp]'."
		},
	},

	"asm/operands": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("'%v' takes %v operand(s)", args[0], args[1])
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "Each instruction in the supported subset has a fixed number of operands, and this " +
				"one was given the wrong number."
		},
	},

	"asm/reg": {
		Message: func(tok token.Token, args ...any) string {
			return "unknown register '" + args[0].(string) + "'"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The sixteen 64-bit general-purpose registers are rax, rbx, rcx, rdx, rsp, rbp, " +
				"rsi, rdi and r8 through r15."
		},
	},

	"asm/steps": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("assembly block still running after %v steps", args[0])
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The block looks like it will loop forever, so it was abandoned with no result."
		},
	},

	"eval/arity": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("'%v' takes %v argument(s) but got %v", args[0], args[1], args[2])
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "A function must be called with exactly as many arguments as it has parameters."
		},
	},

	"eval/assign/const": {
		Message: func(tok token.Token, args ...any) string {
			return "can't assign to '" + args[0].(string) + "': it is constant"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "Some bindings are made once and then fixed for good, like the name an " +
				"'import ... as' gives to a module. You can read them wherever you like " +
				"but you can't point them at anything else."
		},
	},

	"eval/assign/module": {
		Message: func(tok token.Token, args ...any) string {
			return "can't assign to field of module '" + args[0].(string) + "'"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "A module's bindings belong to the module. An importer can read them but never " +
				"write them."
		},
	},

	"eval/assign/target": {
		Message: func(tok token.Token, args ...any) string {
			return "can't assign to this"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The left-hand side of '=' must be a name, an index expression or a field access."
		},
	},

	"eval/bool": {
		Message: func(tok token.Token, args ...any) string {
			return "condition is " + EmphType(args[0].(Object)) + ", not <bool>"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The conditions of 'if' and 'while' must evaluate to 'true' or 'false'. Pryzma " +
				"has no notion of a truthy or falsy value of any other type."
		},
	},

	"eval/builtin/arg": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("'%v' can't take %v", args[0], EmphType(args[1].(Object)))
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The builtin function was given an argument of a type it has no meaning for."
		},
	},

	"eval/builtin/args": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("'%v' takes %v argument(s) but got %v", args[0], args[1], args[2])
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "Builtin functions, like user-defined ones, take a fixed number of arguments."
		},
	},

	"eval/call/type": {
		Message: func(tok token.Token, args ...any) string {
			return EmphType(args[0].(Object)) + " is not callable"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "Only functions, builtins, struct names and assembly blocks can appear to the " +
				"left of a call's parentheses."
		},
	},

	"eval/div/float": {
		Message: func(tok token.Token, args ...any) string {
			return "division by zero"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "Dividing by 0.0 has no defined result, so Pryzma throws this error rather than " +
				"making one up."
		},
	},

	"eval/div/zero": {
		Message: func(tok token.Token, args ...any) string {
			return "division by zero"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "Dividing by zero has no defined result, so Pryzma throws this error rather than " +
				"making one up."
		},
	},

	"eval/field/dup": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("field '%v' of struct '%v' is given twice", args[1], args[0])
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "When you make a struct, each field gets at most one value, whether you give " +
				"it by position or by name. This call gives the same field two."
		},
	},

	"eval/field/found": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("'%v' has no field '%v'", args[0], args[1])
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "Field access with '.' only works for fields the struct was declared with, or " +
				"for the exported names of a module."
		},
	},

	"eval/field/missing": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("no value for field '%v' of '%v'", args[0], args[1])
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "When a struct is instantiated, every field declared without a default must be " +
				"given a value by the caller."
		},
	},

	"eval/field/named": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("'%v' has no field '%v' to bind", args[0], args[1])
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "A named argument in a struct instantiation must name one of the declared fields."
		},
	},

	"eval/file": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("can't %v file '%v'", args[0], args[1])
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The 'read' and 'write' builtins report this when the operating system turns them " +
				"away, for example because the file doesn't exist or you don't have permission to touch it."
		},
	},

	"eval/ident/found": {
		Message: func(tok token.Token, args ...any) string {
			return "'" + args[0].(string) + "' is not defined"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "No binding with that name exists in the current environment or in any environment " +
				"enclosing it."
		},
	},

	"eval/index/list": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("index %v out of range for list of length %v", args[0], args[1])
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "A list of length n has indices 0 up to n-1."
		},
	},

	"eval/index/string": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("index %v out of range for string of length %v", args[0], args[1])
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "A string of length n has indices 0 up to n-1."
		},
	},

	"eval/index/type": {
		Message: func(tok token.Token, args ...any) string {
			return "can't index " + EmphType(args[0].(Object)) + " with " + EmphType(args[1].(Object))
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "Lists and strings can be indexed, and only by integers."
		},
	},

	"eval/infix/type": {
		Message: func(tok token.Token, args ...any) string {
			return "can't apply '" + tok.Literal + "' to " + EmphType(args[0].(Object)) +
				" and " + EmphType(args[1].(Object))
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The operator has no meaning for operands of these types."
		},
	},

	"eval/injection": {
		Message: func(tok token.Token, args ...any) string {
			return "nothing to run code with"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The 'eval' builtin and the 'use' statement need the service's own pipeline to " +
				"run code, and this evaluator was constructed without one. This is a fault in the " +
				"embedding program, not in your script."
		},
	},

	"eval/prefix/type": {
		Message: func(tok token.Token, args ...any) string {
			return "can't apply '" + tok.Literal + "' to " + EmphType(args[0].(Object))
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "'-' applies to numbers and 'not' applies to booleans, and that is all the prefix " +
				"operators there are."
		},
	},

	"eval/range/ends": {
		Message: func(tok token.Token, args ...any) string {
			return "range bounds must be <int>, got " + EmphType(args[0].(Object))
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "Both ends of a 'for' range must be integers."
		},
	},

	"eval/unknown": {
		Message: func(tok token.Token, args ...any) string {
			return "evaluator can't do anything with this"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The parser produced a node the evaluator has no case for. This is a fault in " +
				"Pryzma, not in your script, and should be reported."
		},
	},

	"import/circular": {
		Message: func(tok token.Token, args ...any) string {
			return "circular import of '" + args[0].(string) + "'"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "Following the chain of imports from this file eventually led back to a file that " +
				"is still in the middle of being loaded. Imports must form a tree, or at least a dag."
		},
	},

	"import/found": {
		Message: func(tok token.Token, args ...any) string {
			return "can't find module '" + args[0].(string) + "'"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The path was resolved against the importing file's directory and then against " +
				"each of the import roots in the project manifest, and no file was found at any of " +
				"them."
		},
	},

	"import/read": {
		Message: func(tok token.Token, args ...any) string {
			return "os returns '" + args[0].(string) + "'"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The module file exists but could not be read. The main body of the error message " +
				"was generated by the os of your computer."
		},
	},

	"init/source": {
		Message: func(tok token.Token, args ...any) string {
			return "os returns '" + args[0].(string) + "'"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The script file could not be read. The main body of the error message was " +
				"generated by the os of your computer."
		},
	},

	"lex/char": {
		Message: func(tok token.Token, args ...any) string {
			return "illegal character " + text.Emph(args[0].(string))
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "This character can't begin any token of the language."
		},
	},

	"lex/escape": {
		Message: func(tok token.Token, args ...any) string {
			return "unknown escape '\\" + args[0].(string) + "'"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The escapes a string literal understands are \\n, \\t, \\r, \\\\, \\\" and \\'."
		},
	},

	"lex/number": {
		Message: func(tok token.Token, args ...any) string {
			return "malformed number " + text.Emph(args[0].(string))
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "Numbers are decimal integers, binary with '0b', octal with '0o', hex with '0x', " +
				"or floats with one decimal point. This was none of those."
		},
	},

	"lex/quote": {
		Message: func(tok token.Token, args ...any) string {
			return "string literal is missing its closing quote"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "A string literal must be closed before the end of the line it was opened on."
		},
	},

	"macro/args": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("keyword '%v' takes %v argument(s) but got %v", args[0], args[1], args[2])
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "A use of a registered keyword must supply one argument per declared parameter."
		},
	},

	"macro/delkeyword/found": {
		Message: func(tok token.Token, args ...any) string {
			return "no keyword '" + args[0].(string) + "' to remove"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "'delkeyword' unregisters a keyword previously registered with 'keyword', and no " +
				"keyword of that name is registered at this point."
		},
	},

	"macro/depth": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("keyword expansion still growing after %v rounds", args[0])
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "Expanding a keyword produced tokens whose expansion produced tokens whose " +
				"expansion... past the configured limit. The usual cause is a keyword that expands " +
				"to itself, directly or through another keyword."
		},
	},

	"macro/paren": {
		Message: func(tok token.Token, args ...any) string {
			return "unbalanced parentheses in keyword arguments"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The arguments of a keyword use run from its opening parenthesis to the matching " +
				"closing one, and the matching closing one never arrived."
		},
	},

	"parse/asm/arrow": {
		Message: func(tok token.Token, args ...any) string {
			return "expected '->' in asm parameter, got " + text.Emph(args[0].(string))
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "Each parameter of an assembly block is written 'name -> register', saying which " +
				"register the argument is loaded into on entry."
		},
	},

	"parse/asm/mem": {
		Message: func(tok token.Token, args ...any) string {
			return "expected a memory size after 'mem', got " + text.Emph(args[0].(string))
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The 'mem' clause of an assembly block takes one integer literal, the size in " +
				"bytes of the block's memory region."
		},
	},

	"parse/expect": {
		Message: func(tok token.Token, args ...any) string {
			return "expected " + text.Emph(args[0].(string)) + ", got " + text.Emph(args[1].(string))
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The parser knows what kind of token has to come next here, and this wasn't it."
		},
	},

	"parse/prefix": {
		Message: func(tok token.Token, args ...any) string {
			return "can't begin an expression with " + text.Emph(tok.Literal)
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The parser was expecting the start of an expression, and this token can't start " +
				"one." + blame(errors, pos, "parse/expect")
		},
	},

	"repl/quit": {
		Message: func(tok token.Token, args ...any) string {
			return "no service is running"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "You typed something at the prompt, but there is no current service to send it to. " +
				"Start one with 'hub run <filepath>'."
		},
	},

	"sys/view/string": {
		Message: func(tok token.Token, args ...any) string {
			return "service variable '$view' must be of type <string>"
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The service variable '$view' can only have the values \"pryzma\" or \"plain\"."
		},
	},

	"sys/view/vals": {
		Message: func(tok token.Token, args ...any) string {
			return "the service variable '$view' can only have the values \"pryzma\" or \"plain\""
		},
		Explanation: func(errors Errors, pos int, tok token.Token, args ...any) string {
			return "The service variable '$view' chooses how values are rendered back at you, and " +
				"those are the renderings there are."
		},
	},
}

func CreateErr(ident string, tok token.Token, args ...any) *Error {
	creator, ok := ErrorCreatorMap[ident]
	if !ok {
		return &Error{ErrorId: ident, Message: "oopsie, can't find errorId " + ident, Token: tok}
	}
	return &Error{ErrorId: ident, Message: creator.Message(tok, args...), Token: tok}
}

func Throw(errorID string, ers Errors, tok token.Token, args ...any) Errors {
	return append(ers, CreateErr(errorID, tok, args...))
}

func AddErr(e *Error, ers Errors, tok token.Token) Errors {
	e.Token = tok
	return append(ers, e)
}

func MergeErrors(a, b Errors) Errors {
	return append(a, b...)
}

func ErrorsToString(ers Errors) string {
	result := ""
	for i, e := range ers {
		result = result + "[" + strconv.Itoa(i) + "] " + e.Inspect(ViewStdOut) + "\n"
	}
	return result
}

func blame(errors Errors, pos int, args ...string) string {
	if pos == 0 {
		return ""
	}
	for _, v := range args {
		if errors[pos-1].ErrorId == v {
			very := ""
			if (errors[pos].Token.Line - errors[pos-1].Token.Line) <= 1 {
				very = "very "
			}
			return "\n\nIn this case the problem is " + very + "likely a knock-on effect of the previous error ([" +
				strconv.Itoa(pos-1) + "] " + errors[pos-1].Inspect(ViewStdOut) + ".)"
		}
	}
	return ""
}

func DescribeObject(obj Object) string {
	if obj.Type() == STRING_OBJ {
		return obj.Inspect(ViewPryzmaLiteral)
	}
	return "'" + obj.Inspect(ViewPryzmaLiteral) + "'"
}

func DescribeObjects(objs []Object) string {
	total := ""
	for i, v := range objs {
		total = total + DescribeObject(v)
		if i < len(objs)-1 {
			total = total + ", "
		}
	}
	return total
}
