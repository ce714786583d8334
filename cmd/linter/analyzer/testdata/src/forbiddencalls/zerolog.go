package forbiddencalls

import (
	"errors"

	zlog "github.com/rs/zerolog/log"
)

func OpenStorage() {
	zlog.Fatal().Err(errors.New("dial failed")).Msg("Failed to open storage") // want "log.Fatal is forbidden outside main function"
}

func LogStartup() {
	zlog.Info().Msg("Starting server")
}
