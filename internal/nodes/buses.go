package nodes

import (
	"pdc/internal/ast"
	"pdc/internal/nodetype"
	"pdc/internal/stdlib"
)

// Send publishes every message it receives on the bus named by "busName".
var Send = &nodetype.Implementation{
	Dependencies: []*nodetype.GlobalDefinition{stdlib.Msg, stdlib.MsgBuses},
	State: func(ctx *nodetype.Context) *ast.Class {
		return stateClass(ctx, ast.NewVar("string", "busName", quote(ctx.Node.StringArg("busName", ""))))
	},
	MessageReceivers: func(ctx *nodetype.Context) map[string]*ast.Func {
		return map[string]*ast.Func{
			"0": receiver(ctx.Globals.Get("msgBuses", "publish"), "(", ctx.State, ".busName, m)"),
		}
	},
}

// Receive forwards messages published on the bus named by "busName".
var Receive = &nodetype.Implementation{
	Dependencies: []*nodetype.GlobalDefinition{stdlib.Msg, stdlib.MsgBuses},
	Initialization: func(ctx *nodetype.Context) *ast.Sequence {
		return ast.Ast(ctx.Globals.Get("msgBuses", "subscribe"), "(",
			quote(ctx.Node.StringArg("busName", "")), ", ", ctx.Snds.Get("0"), ")")
	},
}
