// Command linter runs the repository's static checks:
//
//	go run ./cmd/linter ./...
package main

import (
	"strings"

	"github.com/MakeNowJust/enumcase"
	"github.com/MikhailRaia/secure-shortener/cmd/linter/analyzer"
	"github.com/timakin/bodyclose/passes/bodyclose"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
)

// simpleChecks are the gosimple checks enabled on top of every SA check.
var simpleChecks = map[string]bool{
	"S1000": true,
	"S1001": true,
	"S1002": true,
	"S1005": true,
}

func analyzers() []*analysis.Analyzer {
	var checks []*analysis.Analyzer

	for _, v := range staticcheck.Analyzers {
		if strings.HasPrefix(v.Analyzer.Name, "SA") {
			checks = append(checks, v.Analyzer)
		}
	}

	for _, v := range simple.Analyzers {
		if simpleChecks[v.Analyzer.Name] {
			checks = append(checks, v.Analyzer)
		}
	}

	checks = append(checks,
		printf.Analyzer,
		shadow.Analyzer,
		structtag.Analyzer,
		assign.Analyzer,
		atomic.Analyzer,
		bools.Analyzer,
		copylock.Analyzer,
		lostcancel.Analyzer,
		nilness.Analyzer,
		unreachable.Analyzer,
		unusedresult.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer,
	)

	checks = append(checks,
		bodyclose.Analyzer,
		enumcase.Analyzer,
		analyzer.Analyzer,
	)

	return checks
}

func main() {
	multichecker.Main(analyzers()...)
}
