package stdlib

import (
	"pdc/internal/ast"
	"pdc/internal/nodetype"
)

// Sked is the cooperative event scheduler. Callbacks are registered against
// a string event key, either once (wait) or on every occurrence
// (subscribe). With event logging on, waiting for an event that already
// happened calls back immediately.
var Sked = &nodetype.GlobalDefinition{
	Namespace: "sked",
	Code:      skedCode,
}

func skedCode(ctx *nodetype.GlobalContext) *ast.Sequence {
	ns := ctx.NS
	var (
		idNull        = ns.Get("ID_NULL")
		modeWait      = ns.Get("MODE_WAIT")
		modeSubscribe = ns.Get("MODE_SUBSCRIBE")
		create        = ns.Get("create")
		wait          = ns.Get("wait")
		waitFuture    = ns.Get("waitFuture")
		subscribe     = ns.Get("subscribe")
		emit          = ns.Get("emit")
		cancel        = ns.Get("cancel")
		createRequest = ns.Get("createRequest")
	)
	skeduler := arg("Skeduler", "skeduler")
	event := arg("string", "event")
	callback := arg("SkedCallback", "callback")

	var types, newSkeduler, newRequest *ast.Sequence
	if isAssemblyScript(ctx) {
		types = ast.Ast(
			"type SkedCallback = (event: string) => void\n",
			"\n",
			"class SkedRequest {\n",
			"id: Int\n",
			"mode: Int\n",
			"callback: SkedCallback\n",
			"}\n",
			"\n",
			"class Skeduler {\n",
			"events: Map<string, Array<Int>>\n",
			"requests: Map<Int, SkedRequest>\n",
			"eventLog: Set<string>\n",
			"isLoggingEvents: boolean\n",
			"idCounter: Int\n",
			"}")
		newSkeduler = ast.Ast(
			"return {\n",
			"events: new Map<string, Array<Int>>(),\n",
			"requests: new Map<Int, SkedRequest>(),\n",
			"eventLog: new Set<string>(),\n",
			"isLoggingEvents: isLoggingEvents,\n",
			"idCounter: 1,\n",
			"}")
		newRequest = ast.Ast(ast.NewConstVar("SkedRequest", "request",
			"{ id: id, mode: mode, callback: callback }"))
	} else {
		newSkeduler = ast.Ast(
			"return {\n",
			"events: new Map(),\n",
			"requests: new Map(),\n",
			"eventLog: new Set(),\n",
			"isLoggingEvents: isLoggingEvents,\n",
			"idCounter: 1,\n",
			"}")
		newRequest = ast.Ast("const request = { id: id, mode: mode, callback: callback }")
	}

	return ast.Seq(
		types,
		ast.NewConstVar("Int", idNull, "-1"),
		ast.NewConstVar("Int", modeWait, "0"),
		ast.NewConstVar("Int", modeSubscribe, "1"),
		fn(create, ast.Args(arg("boolean", "isLoggingEvents")), "Skeduler", newSkeduler),

		fn(wait, ast.Args(skeduler, event, callback), "Int",
			"if (skeduler.isLoggingEvents === false) {\n",
			"throw new Error('skeduler is not logging events')\n",
			"}\n",
			"if (skeduler.eventLog.has(event)) {\n",
			"callback(event)\n",
			"return ", idNull, "\n",
			"}\n",
			"return ", createRequest, "(skeduler, event, callback, ", modeWait, ")"),

		fn(waitFuture, ast.Args(skeduler, event, callback), "Int",
			"return ", createRequest, "(skeduler, event, callback, ", modeWait, ")"),

		fn(subscribe, ast.Args(skeduler, event, callback), "Int",
			"return ", createRequest, "(skeduler, event, callback, ", modeSubscribe, ")"),

		fn(emit, ast.Args(skeduler, event), "void",
			"if (skeduler.isLoggingEvents === true) {\n",
			"skeduler.eventLog.add(event)\n",
			"}\n",
			"if (!skeduler.events.has(event)) {\n",
			"return\n",
			"}\n",
			"const ids = skeduler.events.get(event)\n",
			ast.NewConstVar("Array<Int>", "staying", "[]"), "\n",
			"skeduler.events.set(event, [])\n",
			"for (let i = 0; i < ids.length; i++) {\n",
			"if (!skeduler.requests.has(ids[i])) {\n",
			"continue\n",
			"}\n",
			"const request = skeduler.requests.get(ids[i])\n",
			"request.callback(event)\n",
			"if (request.mode === ", modeWait, ") {\n",
			"skeduler.requests.delete(request.id)\n",
			"} else if (skeduler.requests.has(request.id)) {\n",
			"staying.push(request.id)\n",
			"}\n",
			"}\n",
			"const added = skeduler.events.get(event)\n",
			"if (staying.length === 0 && added.length === 0) {\n",
			"skeduler.events.delete(event)\n",
			"} else {\n",
			"skeduler.events.set(event, staying.concat(added))\n",
			"}"),

		fn(cancel, ast.Args(skeduler, arg("Int", "id")), "void",
			"skeduler.requests.delete(id)"),

		fn(createRequest, ast.Args(skeduler, event, callback, arg("Int", "mode")), "Int",
			"const id = skeduler.idCounter++\n",
			newRequest, "\n",
			"skeduler.requests.set(id, request)\n",
			"if (!skeduler.events.has(event)) {\n",
			"skeduler.events.set(event, [])\n",
			"}\n",
			"skeduler.events.get(event).push(id)\n",
			"return id"),
	)
}
