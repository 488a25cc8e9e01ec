package templates

import (
	"pdc/internal/ast"
	"pdc/internal/nodetype"
)

// CoreVariables declares the engine variables shared by both dialects.
// INPUT and OUTPUT are declared by the dialects: their shape differs.
func CoreVariables() *ast.Sequence {
	return ast.Seq(
		ast.NewVar("Float", nodetype.SampleRate, "0"),
		ast.NewVar("Int", nodetype.BlockSize, "0"),
		ast.NewVar("Int", nodetype.Frame, "0"),
		ast.NewVar("Int", nodetype.IterFrame, "0"),
		ast.NewConstVar("Float", nodetype.NullSignal, "0"),
	)
}

// InitializeBody is the body shared by both initialize functions, after the
// sample rate and block size are stored.
func InitializeBody(r *Regions) *ast.Sequence {
	return ast.Seq(
		ast.Ast(nodetype.SampleRate, " = sampleRate"),
		ast.Ast(nodetype.BlockSize, " = blockSize"),
		nonEmpty(r.Arrays),
		nonEmpty(r.Initializations),
		nonEmpty(r.ColdDspTriggers),
	)
}

// Declarations are the top-level regions in emission order.
func Declarations(r *Regions) []*ast.Sequence {
	var result []*ast.Sequence
	for _, region := range []*ast.Sequence{
		r.Dependencies, r.NodeTypes, r.StateInstances, r.Portlets, r.ColdDsp, r.IOReceivers,
	} {
		if !region.IsEmpty() {
			result = append(result, region)
		}
	}
	return result
}

func nonEmpty(seq *ast.Sequence) *ast.Sequence {
	if seq.IsEmpty() {
		return nil
	}
	return seq
}
