package forbiddencalls

import (
	"log"
	"os"
)

func MustParseCode(code string) string {
	if code == "" {
		panic("empty code") // want "panic is forbidden"
	}
	return code
}

func LoadConfigOrDie() {
	log.Fatal("config missing") // want "log.Fatal is forbidden outside main function"
}

func ExitOnMigrationError() {
	os.Exit(1) // want "os.Exit is forbidden outside main function"
}

func ShutdownHard() {
	panic("shutdown")  // want "panic is forbidden"
	log.Fatal("fatal") // want "log.Fatal is forbidden outside main function"
	os.Exit(2)         // want "os.Exit is forbidden outside main function"
}
