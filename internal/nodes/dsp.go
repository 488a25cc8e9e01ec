package nodes

import (
	"strconv"

	"pdc/internal/ast"
	"pdc/internal/nodetype"
	"pdc/internal/stdlib"
)

// Dac writes its signal inlets to the engine output, one channel per inlet.
// The optional "channels" argument lists 1-based output channels.
var Dac = &nodetype.Implementation{
	Dsp: func(ctx *nodetype.Context) nodetype.Dsp {
		channels := ctx.Node.ListArg("channels")
		var lines []*ast.Sequence
		for i, inlet := range ctx.Node.Inlets {
			channel := i
			if i < len(channels) {
				if c, ok := channels[i].(float64); ok {
					channel = int(c) - 1
				}
			}
			if channel < 0 || channel >= ctx.Settings.Audio.ChannelCount.Out {
				continue
			}
			lines = append(lines, ast.Ast(output(ctx, channel), " = ", ctx.Ins.Get(inlet.ID)))
		}
		return nodetype.Dsp{Loop: ast.Lines(lines)}
	},
}

func output(ctx *nodetype.Context, channel int) string {
	if ctx.Settings.Target == nodetype.AssemblyScript {
		return nodetype.Output + "[" + nodetype.IterFrame + " + " + nodetype.BlockSize + " * " + strconv.Itoa(channel) + "]"
	}
	return nodetype.Output + "[" + strconv.Itoa(channel) + "][" + nodetype.IterFrame + "]"
}

// Osc is a cosine oscillator. Its frequency comes from signal inlet 0, or
// from the "frequency" argument when nothing is connected there; a float on
// inlet 1 resets the phase (0 to 1).
var Osc = &nodetype.Implementation{
	Dependencies: []*nodetype.GlobalDefinition{stdlib.Msg},
	State: func(ctx *nodetype.Context) *ast.Class {
		return stateClass(ctx,
			ast.NewVar("Float", "phase", "0"),
			ast.NewVar("Float", "J", "0"),
			ast.NewVar("Float", "frequency", ctx.Node.FloatArg("frequency", 0)),
		)
	},
	Initialization: func(ctx *nodetype.Context) *ast.Sequence {
		return ast.Ast(ctx.State, ".J = toFloat(2 * Math.PI) / ", nodetype.SampleRate)
	},
	MessageReceivers: func(ctx *nodetype.Context) map[string]*ast.Func {
		return map[string]*ast.Func{
			"1": receiver(
				"if (", isFloatMessage(ctx), ") {\n",
				ctx.State, ".phase = toFloat(2 * Math.PI) * ", readFloat(ctx, 0), "\n",
				"return\n",
				"}\n",
				unsupported(ctx)),
		}
	},
	Dsp: func(ctx *nodetype.Context) nodetype.Dsp {
		frequency := ctx.State + ".frequency"
		if connected(ctx, "0") {
			frequency = ctx.Ins.Get("0")
		}
		return nodetype.Dsp{Loop: ast.Ast(
			ctx.Outs.Get("0"), " = toFloat(Math.cos(", ctx.State, ".phase))\n",
			ctx.State, ".phase += ", ctx.State, ".J * ", frequency)}
	},
}

// Sig outputs a constant signal, changed by floats on inlet 0.
var Sig = &nodetype.Implementation{
	Flags:        nodetype.Flags{IsPureFunction: true, IsDspInline: true},
	Dependencies: []*nodetype.GlobalDefinition{stdlib.Msg},
	State: func(ctx *nodetype.Context) *ast.Class {
		return stateClass(ctx, ast.NewVar("Float", "value", ctx.Node.FloatArg("value", 0)))
	},
	MessageReceivers: func(ctx *nodetype.Context) map[string]*ast.Func {
		return map[string]*ast.Func{
			"0": receiver(
				"if (", isFloatMessage(ctx), ") {\n",
				ctx.State, ".value = ", readFloat(ctx, 0), "\n",
				"return\n",
				"}\n",
				unsupported(ctx)),
		}
	},
	Dsp: func(ctx *nodetype.Context) nodetype.Dsp {
		return nodetype.Dsp{Expression: ast.Ast(ctx.State, ".value")}
	},
}

// BinaryOperator combines signal inlets 0 and 1 with operator. When inlet 1
// is not connected, the "value" argument is used instead.
func BinaryOperator(alphaName, operator string) *nodetype.Implementation {
	return &nodetype.Implementation{
		Flags: nodetype.Flags{IsPureFunction: true, IsDspInline: true, AlphaName: alphaName},
		Dsp: func(ctx *nodetype.Context) nodetype.Dsp {
			right := ast.Ast(ctx.Node.FloatArg("value", 0))
			if connected(ctx, "1") {
				right = ast.Ast(ctx.Ins.Get("1"))
			}
			return nodetype.Dsp{Expression: ast.Ast(ctx.Ins.Get("0"), " ", operator, " ", right)}
		},
	}
}

// Lop is a one-pole low-pass filter. The cutoff frequency is recomputed only
// when signal inlet 1 is connected.
var Lop = &nodetype.Implementation{
	Flags: nodetype.Flags{AlphaName: "lop"},
	State: func(ctx *nodetype.Context) *ast.Class {
		return stateClass(ctx,
			ast.NewVar("Float", "previous", "0"),
			ast.NewVar("Float", "coeff", "0"),
		)
	},
	Core: func(ctx *nodetype.CoreContext) *ast.Sequence {
		return ast.Ast(ast.NewFunc(ctx.NS.Get("setFrequency"),
			ast.Args(ast.Arg(ctx.NS.Get("State"), "state"), ast.Arg("Float", "frequency")), "void",
			"state.coeff = toFloat(Math.max(0, Math.min(frequency * 2 * Math.PI / ", nodetype.SampleRate, ", 1)))"))
	},
	Initialization: func(ctx *nodetype.Context) *ast.Sequence {
		return ast.Ast(ctx.NS.Get("setFrequency"), "(", ctx.State, ", ", ctx.Node.FloatArg("frequency", 0), ")")
	},
	Dsp: func(ctx *nodetype.Context) nodetype.Dsp {
		state := ctx.State
		return nodetype.Dsp{
			Loop: ast.Ast(
				state, ".previous = ", ctx.Outs.Get("0"), " = ",
				state, ".coeff * ", ctx.Ins.Get("0"), " + (1 - ", state, ".coeff) * ", state, ".previous"),
			Inlets: map[string]*ast.Sequence{
				"1": ast.Ast(ctx.NS.Get("setFrequency"), "(", state, ", ", ctx.Ins.Get("1"), ")"),
			},
		}
	},
}
