package forbiddencalls

import (
	"log"
	"os"

	zlog "github.com/rs/zerolog/log"
)

func main() {
	zlog.Fatal().Msg("allowed in main")
	log.Fatal("allowed in main")
	os.Exit(0)
}

func init() {
	panic("init panic")         // want "panic is forbidden"
	zlog.Fatal().Msg("in init") // want "log.Fatal is forbidden outside main function"
	os.Exit(1)                  // want "os.Exit is forbidden outside main function"
}
