package nodes

import (
	"pdc/internal/ast"
	"pdc/internal/nodetype"
	"pdc/internal/stdlib"
)

// Loadbang sends a bang on the first frame.
var Loadbang = &nodetype.Implementation{
	Dependencies: []*nodetype.GlobalDefinition{stdlib.Msg, stdlib.CommonsFrames},
	Initialization: func(ctx *nodetype.Context) *ast.Sequence {
		return ast.Ast(ctx.Globals.Get("commonsFrames", "waitFrame"), "(0, ",
			ast.AnonFunc(ast.Args(ast.Arg("string", "event")), "void",
				ctx.Snds.Get("0"), "(", ctx.Globals.Get("msg", "bang"), "())"),
			")")
	},
}

// Metro bangs every "rate" milliseconds once started. Inlet 0 takes bang or
// non-zero to start, 0 or "stop" to stop; inlet 1 sets the rate.
var Metro = &nodetype.Implementation{
	Flags:        nodetype.Flags{AlphaName: "metro"},
	Dependencies: []*nodetype.GlobalDefinition{stdlib.Msg, stdlib.Sked, stdlib.CommonsFrames},
	State: func(ctx *nodetype.Context) *ast.Class {
		return stateClass(ctx,
			ast.NewVar("Float", "rate", ctx.Node.FloatArg("rate", 0)),
			ast.NewVar("Float", "sampleRatio", "1"),
			ast.NewVar("Int", "skedId", ctx.Globals.Get("sked", "ID_NULL")),
			ast.NewVar("Float", "realNextTick", "-1"),
			ast.NewVar("SkedCallback", "tickCallback",
				ast.AnonFunc(ast.Args(ast.Arg("string", "event")), "void")),
		)
	},
	Core: func(ctx *nodetype.CoreContext) *ast.Sequence {
		state := ast.Arg(ctx.NS.Get("State"), "state")
		ns := ctx.NS
		return ast.Seq(
			ast.NewFunc(ns.Get("setRate"), ast.Args(state, ast.Arg("Float", "rate")), "void",
				"state.rate = rate\n",
				"state.sampleRatio = toFloat(Math.max(1, rate * ", nodetype.SampleRate, " / 1000))"),
			ast.NewFunc(ns.Get("scheduleNextTick"), ast.Args(state), "void",
				"state.realNextTick = state.realNextTick + state.sampleRatio\n",
				"state.skedId = ", ctx.Globals.Get("commonsFrames", "waitFrame"),
				"(toInt(Math.round(state.realNextTick)), state.tickCallback)"),
			ast.NewFunc(ns.Get("stop"), ast.Args(state), "void",
				"if (state.skedId !== ", ctx.Globals.Get("sked", "ID_NULL"), ") {\n",
				ctx.Globals.Get("commonsFrames", "cancelWaitFrame"), "(state.skedId)\n",
				"state.skedId = ", ctx.Globals.Get("sked", "ID_NULL"), "\n",
				"}\n",
				"state.realNextTick = -1"),
		)
	},
	Initialization: func(ctx *nodetype.Context) *ast.Sequence {
		return ast.Seq(
			ast.Ast(ctx.NS.Get("setRate"), "(", ctx.State, ", ", ctx.Node.FloatArg("rate", 0), ")"),
			ast.Ast(ctx.State, ".tickCallback = ",
				ast.AnonFunc(ast.Args(ast.Arg("string", "event")), "void",
					ctx.Snds.Get("0"), "(", ctx.Globals.Get("msg", "bang"), "())\n",
					ctx.NS.Get("scheduleNextTick"), "(", ctx.State, ")")),
		)
	},
	MessageReceivers: func(ctx *nodetype.Context) map[string]*ast.Func {
		msg := func(key string) string { return ctx.Globals.Get("msg", key) }
		state := ctx.State
		return map[string]*ast.Func{
			"0": receiver(
				"if (", msg("getLength"), "(m) === 1) {\n",
				"if ((", msg("isFloatToken"), "(m, 0) && ", msg("readFloatToken"), "(m, 0) === 0)",
				" || (", msg("isStringToken"), "(m, 0) && ", msg("readStringToken"), "(m, 0) === 'stop')) {\n",
				ctx.NS.Get("stop"), "(", state, ")\n",
				"return\n",
				"}\n",
				"if (", msg("isFloatToken"), "(m, 0) || ", msg("isBang"), "(m)) {\n",
				ctx.NS.Get("stop"), "(", state, ")\n",
				state, ".realNextTick = toFloat(", nodetype.Frame, ")\n",
				state, ".tickCallback('')\n",
				"return\n",
				"}\n",
				"}\n",
				unsupported(ctx)),
			"1": receiver(
				"if (", isFloatMessage(ctx), ") {\n",
				ctx.NS.Get("setRate"), "(", state, ", ", readFloat(ctx, 0), ")\n",
				"return\n",
				"}\n",
				unsupported(ctx)),
		}
	},
}

// Float stores a number. A float on inlet 0 stores and outputs it, a bang
// outputs the stored value, a float on inlet 1 only stores it.
var Float = &nodetype.Implementation{
	Dependencies: []*nodetype.GlobalDefinition{stdlib.Msg},
	State: func(ctx *nodetype.Context) *ast.Class {
		return stateClass(ctx, ast.NewVar("Float", "value", ctx.Node.FloatArg("value", 0)))
	},
	MessageReceivers: func(ctx *nodetype.Context) map[string]*ast.Func {
		output := ast.Ast(ctx.Snds.Get("0"), "(", ctx.Globals.Get("msg", "floats"), "([", ctx.State, ".value]))")
		return map[string]*ast.Func{
			"0": receiver(
				"if (", isFloatMessage(ctx), ") {\n",
				ctx.State, ".value = ", readFloat(ctx, 0), "\n",
				output, "\n",
				"return\n",
				"}\n",
				"if (", ctx.Globals.Get("msg", "isBang"), "(m)) {\n",
				output, "\n",
				"return\n",
				"}\n",
				unsupported(ctx)),
			"1": receiver(
				"if (", isFloatMessage(ctx), ") {\n",
				ctx.State, ".value = ", readFloat(ctx, 0), "\n",
				"return\n",
				"}\n",
				unsupported(ctx)),
		}
	},
}

// Msg outputs a fixed message, given by the "template" argument, whatever
// it receives.
var Msg = &nodetype.Implementation{
	Dependencies: []*nodetype.GlobalDefinition{stdlib.Msg},
	MessageReceivers: func(ctx *nodetype.Context) map[string]*ast.Func {
		msg := func(key string) string { return ctx.Globals.Get("msg", key) }
		tokens := ctx.Node.ListArg("template")

		template := ast.Ast()
		var writes []*ast.Sequence
		for i, token := range tokens {
			if i > 0 {
				template = ast.Ast(template, ", ")
			}
			switch v := token.(type) {
			case string:
				template = ast.Ast(template, msg("STRING_TOKEN"), ", ", len([]rune(v)))
				writes = append(writes, ast.Ast(msg("writeStringToken"), "(message, ", i, ", ", quote(v), ")"))
			default:
				template = ast.Ast(template, msg("FLOAT_TOKEN"))
				value := 0.0
				if f, ok := v.(float64); ok {
					value = f
				}
				writes = append(writes, ast.Ast(msg("writeFloatToken"), "(message, ", i, ", ", value, ")"))
			}
		}
		return map[string]*ast.Func{
			"0": receiver(
				ast.NewConstVar("Message", "message", msg("create"), "([", template, "])"), "\n",
				ast.Lines(writes), "\n",
				ctx.Snds.Get("0"), "(message)"),
		}
	},
}
