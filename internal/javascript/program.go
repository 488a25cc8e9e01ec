package javascript

import (
	"pdc/internal/ast"
	"pdc/internal/nodetype"
	"pdc/internal/precompile"
	"pdc/internal/render"
	"pdc/internal/templates"
)

// Program renders p as a JavaScript factory named createEngine.
func Program(p *precompile.Program) (string, error) {
	regions, err := templates.Build(p)
	if err != nil {
		return "", err
	}
	metadata, err := templates.BuildMetadata(p).JSON()
	if err != nil {
		return "", err
	}

	var ioSenders []*ast.Func
	for _, entry := range p.IO.MessageSenders.Values() {
		ioSenders = append(ioSenders, ast.NewFunc(entry.FunctionName, ast.Args(ast.Arg("Message", "m")), "void",
			"engine.io.messageSenders[", templates.Quote(entry.NodeID), "][", templates.Quote(entry.PortletID), "](m)"))
	}

	program := ast.Seq(
		"function createEngine() {",
		prelude(p.Settings),
		importForwarders(p),
		ast.Lines(templates.Declarations(regions)),
		ast.Lines(ioSenders),
		engineObject(p, regions, metadata),
		"return engine",
		"}",
	)
	return render.Render(Macros{}, program)
}

func prelude(settings nodetype.Settings) *ast.Sequence {
	toFloat := "return v"
	if settings.Audio.BitDepth == 32 {
		toFloat = "return Math.fround(v)"
	}
	return ast.Seq(
		ast.Ast("const FloatArray = ", settings.FloatArrayType()),
		ast.NewFunc("toFloat", ast.Args(ast.Arg("Float", "v")), "Float", toFloat),
		ast.NewFunc("toInt", ast.Args(ast.Arg("Float", "v")), "Int", "return v | 0"),
		templates.CoreVariables(),
		ast.NewVar("Array<FloatArray>", nodetype.Input, "[]"),
		ast.NewVar("Array<FloatArray>", nodetype.Output, "[]"),
	)
}

// importForwarders declares one function per host import. It calls the
// slot the host assigns in engine.globals.
func importForwarders(p *precompile.Program) *ast.Sequence {
	var funcs []*ast.Func
	for _, imp := range p.Dependencies.Imports {
		args := ""
		for i, a := range imp.Func.Args {
			if i > 0 {
				args += ", "
			}
			args += a.Name
		}
		funcs = append(funcs, ast.NewFunc(imp.Func.Name, imp.Func.Args, imp.Func.ReturnType,
			"return engine.globals[", templates.Quote(imp.Namespace), "][", templates.Quote(imp.Key), "](", args, ")"))
	}
	return ast.Lines(funcs)
}

func engineObject(p *precompile.Program, r *templates.Regions, metadata string) *ast.Sequence {
	initialize := ast.AnonFunc(ast.Args(ast.Arg("Float", "sampleRate"), ast.Arg("Int", "blockSize")), "void",
		ast.Seq(
			"engine.metadata.settings.audio.sampleRate = sampleRate",
			"engine.metadata.settings.audio.blockSize = blockSize",
			templates.InitializeBody(r),
		))
	dspLoop := ast.AnonFunc(ast.Args(ast.Arg("Array<FloatArray>", "input"), ast.Arg("Array<FloatArray>", "output")), "void",
		ast.Seq(
			ast.Ast(nodetype.Input, " = input"),
			ast.Ast(nodetype.Output, " = output"),
			r.Loop,
		))

	return ast.Seq(
		"const engine = {",
		ast.Ast("metadata: JSON.parse(", templates.EmbedJSON(metadata), "),"),
		ast.Ast("initialize: ", initialize, ","),
		ast.Ast("dspLoop: ", dspLoop, ","),
		"io: {",
		ast.Ast("messageReceivers: ", ioTable(p.IO.MessageReceivers.Values(), func(e *precompile.IOEntry) interface{} {
			return e.FunctionName
		}), ","),
		ast.Ast("messageSenders: ", ioTable(p.IO.MessageSenders.Values(), func(e *precompile.IOEntry) interface{} {
			return ast.AnonFunc(ast.Args(ast.Arg("Message", "m")), "void")
		}), ","),
		"},",
		ast.Ast("globals: ", globalsTable(p), ","),
		"}",
	)
}

// ioTable renders node id -> portlet id -> value, in registration order.
func ioTable(entries []*precompile.IOEntry, value func(*precompile.IOEntry) interface{}) *ast.Sequence {
	var order []string
	byNode := map[string][]*precompile.IOEntry{}
	for _, entry := range entries {
		if _, ok := byNode[entry.NodeID]; !ok {
			order = append(order, entry.NodeID)
		}
		byNode[entry.NodeID] = append(byNode[entry.NodeID], entry)
	}
	if len(order) == 0 {
		return ast.Ast("{}")
	}
	var nodes []*ast.Sequence
	for _, nodeID := range order {
		var ports []*ast.Sequence
		for _, entry := range byNode[nodeID] {
			ports = append(ports, ast.Ast(templates.Quote(entry.PortletID), ": ", value(entry), ","))
		}
		nodes = append(nodes, ast.Ast(templates.Quote(nodeID), ": {\n", ast.Lines(ports), "\n},"))
	}
	return ast.Ast("{\n", ast.Lines(nodes), "\n}")
}

// globalsTable exposes runtime exports and the import slots, grouped by
// module. Import slots throw until the host assigns them.
func globalsTable(p *precompile.Program) *ast.Sequence {
	var modules []*ast.Sequence
	for _, module := range p.Dependencies.Modules {
		var entries []*ast.Sequence
		for _, exp := range p.Dependencies.Exports {
			if exp.Namespace == module.Namespace {
				entries = append(entries, ast.Ast(templates.Quote(exp.Key), ": ", exp.Name, ","))
			}
		}
		for _, imp := range p.Dependencies.Imports {
			if imp.Namespace != module.Namespace {
				continue
			}
			stub := ast.AnonFunc(nil, "void",
				"throw new Error(", templates.Quote("import for "+imp.Namespace+"."+imp.Key+" not provided"), ")")
			entries = append(entries, ast.Ast(templates.Quote(imp.Key), ": ", stub, ","))
		}
		if len(entries) == 0 {
			continue
		}
		modules = append(modules, ast.Ast(templates.Quote(module.Namespace), ": {\n", ast.Lines(entries), "\n},"))
	}
	if len(modules) == 0 {
		return ast.Ast("{}")
	}
	return ast.Ast("{\n", ast.Lines(modules), "\n}")
}
