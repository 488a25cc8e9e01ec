package stdlib

import (
	"pdc/internal/ast"
	"pdc/internal/nodetype"
)

// Msg is the message envelope module. A message is a fixed-arity sequence of
// float and string tokens.
//
// On AssemblyScript a message is a single buffer: an Int32 header holding the
// token count, one type tag per token and count+1 byte offsets, followed by
// the packed tokens (one Float per float token, one Int32 char code per
// string character).
var Msg = &nodetype.GlobalDefinition{
	Namespace: "msg",
	Code:      msgCode,
	Exports: []string{
		"FLOAT_TOKEN", "STRING_TOKEN",
		"create", "getLength", "getTokenType", "isStringToken", "isFloatToken",
		"writeFloatToken", "writeStringToken", "readFloatToken", "readStringToken",
	},
}

func msgCode(ctx *nodetype.GlobalContext) *ast.Sequence {
	ns := ctx.NS
	var (
		floatToken  = ns.Get("FLOAT_TOKEN")
		stringToken = ns.Get("STRING_TOKEN")
		create      = ns.Get("create")
		getLength   = ns.Get("getLength")
		getType     = ns.Get("getTokenType")
		isString    = ns.Get("isStringToken")
		isFloat     = ns.Get("isFloatToken")
		isMatching  = ns.Get("isMatching")
		writeFloat  = ns.Get("writeFloatToken")
		writeString = ns.Get("writeStringToken")
		readFloat   = ns.Get("readFloatToken")
		readString  = ns.Get("readStringToken")
		floats      = ns.Get("floats")
		strings     = ns.Get("strings")
		bang        = ns.Get("bang")
		isBang      = ns.Get("isBang")
		display     = ns.Get("display")
		empty       = ns.Get("emptyMessage")
		null        = ns.Get("nullMessageReceiver")
	)
	m := arg("Message", "m")
	i := arg("Int", "i")

	var impl *targetBodies
	if isAssemblyScript(ctx) {
		impl = msgAssemblyScript(ctx, floatToken, stringToken)
	} else {
		impl = msgJavaScript(floatToken, stringToken)
	}
	return ast.Seq(
		ast.NewConstVar("Int", floatToken, "0"),
		ast.NewConstVar("Int", stringToken, "1"),
		impl.prelude,
		fn(create, ast.Args(arg("MessageTemplate", "template")), "Message", impl.bodies["create"]),
		fn(getLength, ast.Args(m), "Int", impl.bodies["getLength"]),
		fn(getType, ast.Args(m, i), "Int", impl.bodies["getTokenType"]),
		fn(isString, ast.Args(m, i), "boolean",
			"return ", getType, "(m, i) === ", stringToken),
		fn(isFloat, ast.Args(m, i), "boolean",
			"return ", getType, "(m, i) === ", floatToken),
		fn(isMatching, ast.Args(m, arg("Array<Int>", "tokenTypes")), "boolean",
			"if (tokenTypes.length !== ", getLength, "(m)) {\n",
			"return false\n",
			"}\n",
			"for (let i = 0; i < tokenTypes.length; i++) {\n",
			"if (", getType, "(m, i) !== tokenTypes[i]) {\n",
			"return false\n",
			"}\n",
			"}\n",
			"return true"),
		fn(writeFloat, ast.Args(m, i, arg("Float", "value")), "void", impl.bodies["writeFloatToken"]),
		fn(writeString, ast.Args(m, i, arg("string", "value")), "void", impl.bodies["writeStringToken"]),
		fn(readFloat, ast.Args(m, i), "Float", impl.bodies["readFloatToken"]),
		fn(readString, ast.Args(m, i), "string", impl.bodies["readStringToken"]),
		fn(floats, ast.Args(arg("Array<Float>", "values")), "Message",
			ast.NewConstVar("MessageTemplate", "template", "[]"), "\n",
			"for (let i = 0; i < values.length; i++) {\n",
			"template.push(", floatToken, ")\n",
			"}\n",
			"const m = ", create, "(template)\n",
			"for (let i = 0; i < values.length; i++) {\n",
			writeFloat, "(m, i, values[i])\n",
			"}\n",
			"return m"),
		fn(strings, ast.Args(arg("Array<string>", "values")), "Message",
			ast.NewConstVar("MessageTemplate", "template", "[]"), "\n",
			"for (let i = 0; i < values.length; i++) {\n",
			"template.push(", stringToken, ")\n",
			"template.push(values[i].length)\n",
			"}\n",
			"const m = ", create, "(template)\n",
			"for (let i = 0; i < values.length; i++) {\n",
			writeString, "(m, i, values[i])\n",
			"}\n",
			"return m"),
		fn(bang, nil, "Message", "return ", strings, "(['bang'])"),
		fn(isBang, ast.Args(m), "boolean",
			"return ", getLength, "(m) === 1 && ", isString, "(m, 0) && ", readString, "(m, 0) === 'bang'"),
		fn(display, ast.Args(m), "string",
			"let result = '['\n",
			"for (let i = 0; i < ", getLength, "(m); i++) {\n",
			"if (i > 0) {\n",
			"result += ', '\n",
			"}\n",
			"if (", isString, "(m, i)) {\n",
			"result += '\"' + ", readString, "(m, i) + '\"'\n",
			"} else {\n",
			"result += ", readFloat, "(m, i).toString()\n",
			"}\n",
			"}\n",
			"return result + ']'"),
		ast.NewConstVar("Message", empty, create, "([])"),
		fn(null, ast.Args(m), "void"),
	)
}

// targetBodies holds the function bodies that differ between targets.
type targetBodies struct {
	prelude *ast.Sequence
	bodies  map[string]*ast.Sequence
}

func msgJavaScript(floatToken, stringToken string) *targetBodies {
	return &targetBodies{
		bodies: map[string]*ast.Sequence{
			"create": ast.Ast(
				"const m = []\n",
				"let i = 0\n",
				"while (i < template.length) {\n",
				"if (template[i] === ", stringToken, ") {\n",
				"m.push('')\n",
				"i += 2\n",
				"} else if (template[i] === ", floatToken, ") {\n",
				"m.push(0)\n",
				"i += 1\n",
				"} else {\n",
				"throw new Error('unknown token type ' + template[i])\n",
				"}\n",
				"}\n",
				"return m"),
			"getLength": ast.Ast("return m.length"),
			"getTokenType": ast.Ast(
				"return typeof m[i] === 'number' ? ", floatToken, " : ", stringToken),
			"writeFloatToken":  ast.Ast("m[i] = value"),
			"writeStringToken": ast.Ast("m[i] = value"),
			"readFloatToken":   ast.Ast("return m[i]"),
			"readStringToken":  ast.Ast("return m[i]"),
		},
	}
}

func msgAssemblyScript(ctx *nodetype.GlobalContext, floatToken, stringToken string) *targetBodies {
	bits := floatBits(ctx)
	return &targetBodies{
		prelude: ast.Ast(
			"type MessageTemplate = Array<Int>\n",
			"type MessageHandler = (m: Message) => void\n",
			"\n",
			"class Message {\n",
			"public dataView: DataView\n",
			"public tokenCount: Int\n",
			"public tokenTypes: Int32Array\n",
			"public tokenPositions: Int32Array\n",
			"\n",
			"constructor(buffer: ArrayBuffer) {\n",
			"const tokenCount = Int32Array.wrap(buffer, 0, 1)[0]\n",
			"this.dataView = new DataView(buffer)\n",
			"this.tokenCount = tokenCount\n",
			"this.tokenTypes = Int32Array.wrap(buffer, <Int>sizeof<Int>(), tokenCount)\n",
			"this.tokenPositions = Int32Array.wrap(buffer, (1 + tokenCount) * <Int>sizeof<Int>(), tokenCount + 1)\n",
			"}\n",
			"}"),
		bodies: map[string]*ast.Sequence{
			"create": ast.Ast(
				"const tokenTypes: Array<Int> = []\n",
				"const tokenSizes: Array<Int> = []\n",
				"let i: Int = 0\n",
				"while (i < template.length) {\n",
				"if (template[i] === ", stringToken, ") {\n",
				"tokenTypes.push(", stringToken, ")\n",
				"tokenSizes.push(template[i + 1] * <Int>sizeof<Int>())\n",
				"i += 2\n",
				"} else if (template[i] === ", floatToken, ") {\n",
				"tokenTypes.push(", floatToken, ")\n",
				"tokenSizes.push(<Int>sizeof<Float>())\n",
				"i += 1\n",
				"} else {\n",
				"throw new Error('unknown token type ' + template[i].toString())\n",
				"}\n",
				"}\n",
				"const tokenCount = tokenTypes.length\n",
				"const headerLength = 1 + tokenCount * 2 + 1\n",
				"const header = new Int32Array(headerLength)\n",
				"header[0] = tokenCount\n",
				"let position: Int = headerLength * <Int>sizeof<Int>()\n",
				"for (let j: Int = 0; j < tokenCount; j++) {\n",
				"header[1 + j] = tokenTypes[j]\n",
				"header[1 + tokenCount + j] = position\n",
				"position += tokenSizes[j]\n",
				"}\n",
				"header[headerLength - 1] = position\n",
				"const buffer = new ArrayBuffer(position)\n",
				"Int32Array.wrap(buffer, 0, headerLength).set(header)\n",
				"return new Message(buffer)"),
			"getLength":    ast.Ast("return m.tokenCount"),
			"getTokenType": ast.Ast("return m.tokenTypes[i]"),
			"writeFloatToken": ast.Ast(
				"m.dataView.setFloat", bits, "(m.tokenPositions[i], value, true)"),
			"writeStringToken": ast.Ast(
				"const start = m.tokenPositions[i]\n",
				"const length = (m.tokenPositions[i + 1] - start) / <Int>sizeof<Int>()\n",
				"for (let j: Int = 0; j < length && j < value.length; j++) {\n",
				"m.dataView.setInt32(start + j * <Int>sizeof<Int>(), value.charCodeAt(j), true)\n",
				"}"),
			"readFloatToken": ast.Ast(
				"return m.dataView.getFloat", bits, "(m.tokenPositions[i], true)"),
			"readStringToken": ast.Ast(
				"const start = m.tokenPositions[i]\n",
				"const length = (m.tokenPositions[i + 1] - start) / <Int>sizeof<Int>()\n",
				"const chars: Array<Int> = []\n",
				"for (let j: Int = 0; j < length; j++) {\n",
				"const code = m.dataView.getInt32(start + j * <Int>sizeof<Int>(), true)\n",
				"if (code === 0) {\n",
				"break\n",
				"}\n",
				"chars.push(code)\n",
				"}\n",
				"return String.fromCharCodes(chars)"),
		},
	}
}
