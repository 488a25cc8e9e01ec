package nodes

import (
	"pdc/internal/ast"
	"pdc/internal/nodetype"
	"pdc/internal/stdlib"
)

// Tabwrite writes a value into the named array at the index set on inlet 1.
// A float on inlet 0 stores and writes it, a bang writes the stored value
// again. The array is looked up by name on every write, so an array that is
// never set only fails at run time. "set <name>" switches array.
var Tabwrite = &nodetype.Implementation{
	Dependencies: []*nodetype.GlobalDefinition{stdlib.Msg, stdlib.CommonsArrays},
	State: func(ctx *nodetype.Context) *ast.Class {
		return stateClass(ctx,
			ast.NewVar("Int", "index", "0"),
			ast.NewVar("Float", "value", "0"),
			ast.NewVar("string", "arrayName", quote(ctx.Node.StringArg("arrayName", ""))),
		)
	},
	Core: func(ctx *nodetype.CoreContext) *ast.Sequence {
		return ast.Ast(ast.NewFunc(ctx.NS.Get("write"), ast.Args(ast.Arg(ctx.NS.Get("State"), "state")), "void",
			"const array = ", ctx.Globals.Get("commonsArrays", "getArray"), "(state.arrayName)\n",
			"if (state.index >= 0 && state.index < array.length) {\n",
			"array[state.index] = state.value\n",
			"}"))
	},
	MessageReceivers: func(ctx *nodetype.Context) map[string]*ast.Func {
		msg := func(key string) string { return ctx.Globals.Get("msg", key) }
		state := ctx.State
		write := ctx.NS.Get("write")
		return map[string]*ast.Func{
			"0": receiver(
				"if (", isFloatMessage(ctx), ") {\n",
				state, ".value = ", readFloat(ctx, 0), "\n",
				write, "(", state, ")\n",
				"return\n",
				"}\n",
				"if (", msg("isBang"), "(m)) {\n",
				write, "(", state, ")\n",
				"return\n",
				"}\n",
				"if (", msg("getLength"), "(m) === 2 && ", msg("isStringToken"), "(m, 0) && ",
				msg("readStringToken"), "(m, 0) === 'set' && ", msg("isStringToken"), "(m, 1)) {\n",
				state, ".arrayName = ", msg("readStringToken"), "(m, 1)\n",
				"return\n",
				"}\n",
				unsupported(ctx)),
			"1": receiver(
				"if (", isFloatMessage(ctx), ") {\n",
				state, ".index = toInt(", readFloat(ctx, 0), ")\n",
				"return\n",
				"}\n",
				unsupported(ctx)),
		}
	},
}

// Soundfiler loads and saves arrays through the host file system.
// "read <url> <array>" stores the first channel of the file in the array and
// outputs its length; "write <url> <array>" saves the array.
var Soundfiler = &nodetype.Implementation{
	Dependencies: []*nodetype.GlobalDefinition{stdlib.Msg, stdlib.CommonsArrays, stdlib.Fs},
	State: func(ctx *nodetype.Context) *ast.Class {
		return stateClass(ctx,
			ast.NewVar("string", "arrayName", "''"),
			ast.NewVar("FsReadCallback", "readCallback",
				ast.AnonFunc(ast.Args(
					ast.Arg("Int", "id"), ast.Arg("Int", "status"), ast.Arg("Array<FloatArray>", "sound")), "void")),
			ast.NewVar("FsWriteCallback", "writeCallback",
				ast.AnonFunc(ast.Args(ast.Arg("Int", "id"), ast.Arg("Int", "status")), "void")),
		)
	},
	Initialization: func(ctx *nodetype.Context) *ast.Sequence {
		state := ctx.State
		return ast.Seq(
			ast.Ast(state, ".readCallback = ", ast.AnonFunc(ast.Args(
				ast.Arg("Int", "id"), ast.Arg("Int", "status"), ast.Arg("Array<FloatArray>", "sound")), "void",
				"if (status !== ", stdlib.FsStatusOK, " || sound.length === 0) {\n",
				"return\n",
				"}\n",
				ctx.Globals.Get("commonsArrays", "setArray"), "(", state, ".arrayName, sound[0])\n",
				ctx.Snds.Get("0"), "(", ctx.Globals.Get("msg", "floats"), "([toFloat(sound[0].length)]))")),
			ast.Ast(state, ".writeCallback = ", ast.AnonFunc(ast.Args(
				ast.Arg("Int", "id"), ast.Arg("Int", "status")), "void",
				"if (status === ", stdlib.FsStatusOK, ") {\n",
				ctx.Snds.Get("0"), "(", ctx.Globals.Get("msg", "bang"), "())\n",
				"}")),
		)
	},
	MessageReceivers: func(ctx *nodetype.Context) map[string]*ast.Func {
		msg := func(key string) string { return ctx.Globals.Get("msg", key) }
		fs := func(key string) string { return ctx.Globals.Get("fs", key) }
		state := ctx.State
		isCommand := func(command string) *ast.Sequence {
			return ast.Ast(msg("getLength"), "(m) === 3 && ", msg("isStringToken"), "(m, 0) && ",
				msg("readStringToken"), "(m, 0) === ", quote(command), " && ",
				msg("isStringToken"), "(m, 1) && ", msg("isStringToken"), "(m, 2)")
		}
		return map[string]*ast.Func{
			"0": receiver(
				"if (", isCommand("read"), ") {\n",
				state, ".arrayName = ", msg("readStringToken"), "(m, 2)\n",
				fs("readSoundFile"), "(", msg("readStringToken"), "(m, 1), ", state, ".readCallback)\n",
				"return\n",
				"}\n",
				"if (", isCommand("write"), ") {\n",
				fs("writeSoundFile"), "([", ctx.Globals.Get("commonsArrays", "getArray"), "(",
				msg("readStringToken"), "(m, 2))], ", msg("readStringToken"), "(m, 1), ", state, ".writeCallback)\n",
				"return\n",
				"}\n",
				unsupported(ctx)),
		}
	},
}
