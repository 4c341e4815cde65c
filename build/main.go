// Command build holds the repository's development tasks.
//
//	go run ./build          # all
//	go run ./build -v test
package main

import (
	"os"
	"os/exec"

	"github.com/goyek/goyek/v2"
)

func gocmd(a *goyek.A, args ...string) {
	a.Helper()
	a.Logf("go %v", args)
	cmd := exec.CommandContext(a.Context(), "go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		a.Error(err)
	}
}

var fmtTask = goyek.Define(goyek.Task{
	Name:  "fmt",
	Usage: "Run go fmt on all packages",
	Action: func(a *goyek.A) {
		gocmd(a, "fmt", "./...")
	},
})

var vet = goyek.Define(goyek.Task{
	Name:  "vet",
	Usage: "Run go vet on all packages",
	Action: func(a *goyek.A) {
		gocmd(a, "vet", "./...")
	},
})

var test = goyek.Define(goyek.Task{
	Name:  "test",
	Usage: "Run the tests with the race detector",
	Action: func(a *goyek.A) {
		gocmd(a, "test", "-race", "-count=1", "./...")
	},
})

var all = goyek.Define(goyek.Task{
	Name:  "all",
	Usage: "fmt, vet and test",
	Deps:  goyek.Deps{fmtTask, vet, test},
})

func main() {
	goyek.SetDefault(all)
	goyek.Main(os.Args[1:])
}
