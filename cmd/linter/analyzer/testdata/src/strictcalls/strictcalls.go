package strictcalls

import (
	"log"
	"math/rand" // want "math/rand is forbidden, use crypto/rand"
	"os"
)

func SomePanicFunction() {
	panic("this is forbidden") // want "panic is forbidden"
}

func SomeLogFatalFunction() {
	log.Fatal("this is forbidden") // want "log.Fatal is forbidden outside main function"
}

func SomeLogFatalfFunction() {
	log.Fatalf("this is %s", "forbidden") // want "log.Fatalf is forbidden outside main function"
}

func SomeOsExitFunction() {
	os.Exit(1) // want "os.Exit is forbidden outside main function"
}

func main() {
	os.Exit(0) // want "os.Exit is forbidden outside main function"
}

func RandomCode() int {
	return rand.Intn(10)
}

func ShadowedPanic() {
	panic := func(string) {}
	panic("not the builtin")
}

func LogPrintIsFine() {
	log.Println("allowed")
}
