package stdlib

import (
	"pdc/internal/ast"
	"pdc/internal/nodetype"
)

// CommonsArrays is the named array registry. Arrays are resolved by name at
// run time; reading an array that was never set fails with "unknown array".
var CommonsArrays = &nodetype.GlobalDefinition{
	Namespace:    "commonsArrays",
	Dependencies: []*nodetype.GlobalDefinition{Sked},
	Code:         commonsArraysCode,
	Exports:      []string{"getArray", "setArray"},
}

func commonsArraysCode(ctx *nodetype.GlobalContext) *ast.Sequence {
	ns := ctx.NS
	var (
		arrays      = ns.Get("arrays")
		skeduler    = ns.Get("skeduler")
		getArray    = ns.Get("getArray")
		hasArray    = ns.Get("hasArray")
		setArray    = ns.Get("setArray")
		subscribe   = ns.Get("subscribeArrayChanges")
		unsubscribe = ns.Get("cancelArrayChangesSubscription")
	)
	name := arg("string", "name")

	return ast.Seq(
		ast.NewConstVar("Map<string, FloatArray>", arrays, newMap(ctx, "string", "FloatArray")),
		ast.NewConstVar("Skeduler", skeduler, ctx.Globals.Get("sked", "create"), "(false)"),

		fn(getArray, ast.Args(name), "FloatArray",
			"if (!", arrays, ".has(name)) {\n",
			"throw new Error('unknown array ' + name)\n",
			"}\n",
			"return ", arrays, ".get(name)"),

		fn(hasArray, ast.Args(name), "boolean",
			"return ", arrays, ".has(name)"),

		fn(setArray, ast.Args(name, arg("FloatArray", "array")), "void",
			arrays, ".set(name, array)\n",
			ctx.Globals.Get("sked", "emit"), "(", skeduler, ", name)"),

		fn(subscribe, ast.Args(name, arg("SkedCallback", "callback")), "Int",
			"const id = ", ctx.Globals.Get("sked", "subscribe"), "(", skeduler, ", name, callback)\n",
			"if (", arrays, ".has(name)) {\n",
			"callback(name)\n",
			"}\n",
			"return id"),

		fn(unsubscribe, ast.Args(arg("Int", "id")), "void",
			ctx.Globals.Get("sked", "cancel"), "(", skeduler, ", id)"),
	)
}

// CommonsFrames notifies callbacks when the engine reaches a given frame.
var CommonsFrames = &nodetype.GlobalDefinition{
	Namespace:    "commonsFrames",
	Dependencies: []*nodetype.GlobalDefinition{Sked},
	Code:         commonsFramesCode,
}

func commonsFramesCode(ctx *nodetype.GlobalContext) *ast.Sequence {
	ns := ctx.NS
	skeduler := ns.Get("skeduler")
	frame := arg("Int", "frame")

	return ast.Seq(
		ast.NewConstVar("Skeduler", skeduler, ctx.Globals.Get("sked", "create"), "(false)"),

		fn(ns.Get("waitFrame"), ast.Args(frame, arg("SkedCallback", "callback")), "Int",
			"return ", ctx.Globals.Get("sked", "waitFuture"), "(", skeduler, ", frame.toString(), callback)"),

		fn(ns.Get("cancelWaitFrame"), ast.Args(arg("Int", "id")), "void",
			ctx.Globals.Get("sked", "cancel"), "(", skeduler, ", id)"),

		fn(ns.Get("emitFrame"), ast.Args(frame), "void",
			ctx.Globals.Get("sked", "emit"), "(", skeduler, ", frame.toString())"),
	)
}

// MsgBuses is the registry of named message buses used by send/receive.
var MsgBuses = &nodetype.GlobalDefinition{
	Namespace:    "msgBuses",
	Dependencies: []*nodetype.GlobalDefinition{Msg},
	Code:         msgBusesCode,
}

func msgBusesCode(ctx *nodetype.GlobalContext) *ast.Sequence {
	ns := ctx.NS
	buses := ns.Get("buses")
	busName := arg("string", "busName")
	callback := arg("MessageHandler", "callback")

	return ast.Seq(
		ast.NewConstVar("Map<string, Array<MessageHandler>>", buses,
			newMap(ctx, "string", "Array<MessageHandler>")),

		fn(ns.Get("publish"), ast.Args(busName, arg("Message", "m")), "void",
			"if (!", buses, ".has(busName)) {\n",
			"return\n",
			"}\n",
			"const callbacks = ", buses, ".get(busName)\n",
			"for (let i = 0; i < callbacks.length; i++) {\n",
			"callbacks[i](m)\n",
			"}"),

		fn(ns.Get("subscribe"), ast.Args(busName, callback), "void",
			"if (!", buses, ".has(busName)) {\n",
			buses, ".set(busName, [])\n",
			"}\n",
			buses, ".get(busName).push(callback)"),

		fn(ns.Get("unsubscribe"), ast.Args(busName, callback), "void",
			"if (!", buses, ".has(busName)) {\n",
			"return\n",
			"}\n",
			"const callbacks = ", buses, ".get(busName)\n",
			"const found = callbacks.indexOf(callback)\n",
			"if (found !== -1) {\n",
			"callbacks.splice(found, 1)\n",
			"}"),
	)
}
