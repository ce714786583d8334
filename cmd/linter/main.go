// Command linter runs the forbiddencalls analyzer over the given packages.
package main

import (
	"github.com/MikhailRaia/shortlinks/cmd/linter/analyzer"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(analyzer.Analyzer)
}
