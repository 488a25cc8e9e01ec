package assemblyscript

import (
	"strings"

	"pdc/internal/ast"
	"pdc/internal/nodetype"
	"pdc/internal/precompile"
	"pdc/internal/render"
	"pdc/internal/templates"
)

// Program renders p as an AssemblyScript module. Audio buffers are flat:
// sample i of channel c sits at i + BLOCK_SIZE * c.
func Program(p *precompile.Program) (string, error) {
	regions, err := templates.Build(p)
	if err != nil {
		return "", err
	}
	metadata, err := templates.BuildMetadata(p).JSON()
	if err != nil {
		return "", err
	}

	var imports []string
	for _, imp := range p.Dependencies.Imports {
		imports = append(imports, declare(imp.Func))
	}
	for _, f := range templates.IOSenders(p) {
		imports = append(imports, declare(f))
	}

	channels := p.Settings.Audio.ChannelCount
	initialize := ast.NewFunc("initialize",
		ast.Args(ast.Arg("Float", "sampleRate"), ast.Arg("Int", "blockSize")), "void",
		ast.Seq(
			templates.InitializeBody(regions),
			ast.Ast(nodetype.Input, " = new FloatArray(", nodetype.BlockSize, " * ", channels.In, ")"),
			ast.Ast(nodetype.Output, " = new FloatArray(", nodetype.BlockSize, " * ", channels.Out, ")"),
		))
	program := ast.Seq(
		prelude(p.Settings),
		strings.Join(imports, "\n"),
		ast.Lines(templates.Declarations(regions)),
		ast.Ast("export ", initialize),
		ast.Ast("export ", ast.NewFunc("getInput", nil, "FloatArray", "return ", nodetype.Input)),
		ast.Ast("export ", ast.NewFunc("getOutput", nil, "FloatArray", "return ", nodetype.Output)),
		ast.Ast("export ", ast.NewFunc("dspLoop", nil, "void", regions.Loop)),
		ast.Ast("export ", ast.NewConstVar("string", "metadata", templates.EmbedJSON(metadata))),
		exports(p),
	)
	return render.Render(Macros{}, program)
}

func prelude(settings nodetype.Settings) *ast.Sequence {
	float := "f64"
	if settings.Audio.BitDepth == 32 {
		float = "f32"
	}
	return ast.Seq(
		ast.Ast("type Float = ", float),
		"type Int = i32",
		ast.Ast("type FloatArray = ", settings.FloatArrayType()),
		ast.NewFunc("toFloat", ast.Args(ast.Arg("f64", "v")), "Float", "return v as Float"),
		ast.NewFunc("toInt", ast.Args(ast.Arg("f64", "v")), "Int", "return v as Int"),
		templates.CoreVariables(),
		ast.NewVar("FloatArray", nodetype.Input, "new FloatArray(0)"),
		ast.NewVar("FloatArray", nodetype.Output, "new FloatArray(0)"),
	)
}

// exports lists runtime exports and host-facing receivers.
func exports(p *precompile.Program) string {
	var names []string
	for _, exp := range p.Dependencies.Exports {
		names = append(names, exp.Name)
	}
	for _, entry := range p.IO.MessageReceivers.Values() {
		names = append(names, entry.FunctionName)
	}
	if len(names) == 0 {
		return ""
	}
	return "export {\n" + strings.Join(names, ",\n") + "\n}"
}
