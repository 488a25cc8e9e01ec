package stdlib

import (
	"pdc/internal/ast"
	"pdc/internal/nodetype"
)

// Operation statuses passed back by the host.
const (
	FsStatusOK      = 0
	FsStatusFailure = 1
)

// Fs implements the host file-system protocol. The program calls out through
// imported request functions; the host answers by calling the exported
// response function with the operation id it was given.
var Fs = &nodetype.GlobalDefinition{
	Namespace:    "fs",
	Dependencies: []*nodetype.GlobalDefinition{Msg},
	Code:         fsCode,
	Exports:      []string{"onReadSoundFileResponse", "onWriteSoundFileResponse"},
	Imports:      fsImports,
}

func fsImports(ctx *nodetype.GlobalContext) []*ast.Func {
	return []*ast.Func{
		fn("sendReadSoundFileRequest",
			ast.Args(arg("Int", "id"), arg("string", "url")), "void"),
		fn("sendWriteSoundFileRequest",
			ast.Args(arg("Int", "id"), arg("Array<FloatArray>", "sound"), arg("string", "url")), "void"),
	}
}

func fsCode(ctx *nodetype.GlobalContext) *ast.Sequence {
	ns := ctx.NS
	var (
		readOperations  = ns.Get("readOperations")
		writeOperations = ns.Get("writeOperations")
		counter         = ns.Get("operationCounter")
		sendRead        = ns.Get("sendReadSoundFileRequest")
		sendWrite       = ns.Get("sendWriteSoundFileRequest")
	)
	id := arg("Int", "id")
	status := arg("Int", "status")
	sound := arg("Array<FloatArray>", "sound")
	url := arg("string", "url")

	var types *ast.Sequence
	if isAssemblyScript(ctx) {
		types = ast.Ast(
			"type FsReadCallback = (id: Int, status: Int, sound: Array<FloatArray>) => void\n",
			"type FsWriteCallback = (id: Int, status: Int) => void")
	}

	return ast.Seq(
		types,
		ast.NewConstVar("Map<Int, FsReadCallback>", readOperations, newMap(ctx, "Int", "FsReadCallback")),
		ast.NewConstVar("Map<Int, FsWriteCallback>", writeOperations, newMap(ctx, "Int", "FsWriteCallback")),
		ast.NewVar("Int", counter, "0"),

		fn(ns.Get("readSoundFile"), ast.Args(url, arg("FsReadCallback", "callback")), "Int",
			"const id = ++", counter, "\n",
			readOperations, ".set(id, callback)\n",
			sendRead, "(id, url)\n",
			"return id"),

		fn(ns.Get("writeSoundFile"), ast.Args(sound, url, arg("FsWriteCallback", "callback")), "Int",
			"const id = ++", counter, "\n",
			writeOperations, ".set(id, callback)\n",
			sendWrite, "(id, sound, url)\n",
			"return id"),

		fn(ns.Get("onReadSoundFileResponse"), ast.Args(id, status, sound), "void",
			"if (!", readOperations, ".has(id)) {\n",
			"throw new Error('unknown read operation ' + id.toString())\n",
			"}\n",
			"const callback = ", readOperations, ".get(id)\n",
			readOperations, ".delete(id)\n",
			"callback(id, status, sound)"),

		fn(ns.Get("onWriteSoundFileResponse"), ast.Args(id, status), "void",
			"if (!", writeOperations, ".has(id)) {\n",
			"throw new Error('unknown write operation ' + id.toString())\n",
			"}\n",
			"const callback = ", writeOperations, ".get(id)\n",
			writeOperations, ".delete(id)\n",
			"callback(id, status)"),
	)
}
