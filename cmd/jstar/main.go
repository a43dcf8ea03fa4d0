package main

import (
	"flag"
	"os"

	jstar "github.com/jstar-go/jstar"
)

// cmd/jstar is a thin embedding-API smoke test, not a language
// front-end: lexing/parsing a .jsr source file is out of scope for
// this repository (the execution core only), so there is no -input
// flag reading real source text. Instead it runs a hand-built sample
// Program -- the same way a host application embedding this package
// would construct one after its own front-end parses source.

type cliArgs struct {
	verbose *bool
}

func readArgs() *cliArgs {
	a := &cliArgs{
		verbose: flag.Bool("v", false, "expose command-line args to the sample script as its args global"),
	}
	flag.Parse()
	return a
}

func main() {
	args := readArgs()

	vm := jstar.NewVM(nil)
	if *args.verbose {
		vm.InitCommandLineArgs(flag.Args())
	}

	result := vm.Evaluate(sampleProgram())
	os.Exit(int(result))
}

// sampleProgram builds the "for-loop sum" scenario directly as an
// AST, standing in for what a real .jsr front-end would hand this
// package: `var total = 0; for i in 0..5 { total = total + i } print total`.
func sampleProgram() *jstar.Program {
	total := jstar.NewIdent(1, "total")
	i := jstar.NewIdent(2, "i")

	loopBody := jstar.NewBlock(2, []jstar.Stmt{
		jstar.NewExprStmt(2, jstar.NewAssignName(2, "total", jstar.NewBinOp(2, jstar.OpAdd, total, i))),
	})

	forLoop := jstar.NewForStmt(2, "i", jstar.NewRangeLit(2, jstar.NewNumberLit(2, 0), jstar.NewNumberLit(2, 5), nil), loopBody)

	return jstar.NewProgram(1, []jstar.Stmt{
		jstar.NewVarDecl(1, "total", jstar.NewNumberLit(1, 0)),
		forLoop,
		jstar.NewPrintStmt(3, total),
	})
}
