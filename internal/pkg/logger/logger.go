package logger

import (
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// Setup installs the process-wide apex/log handler.
func Setup(level, format string) {
	switch format {
	case "json":
		log.SetHandler(json.New(os.Stderr))
	default:
		log.SetHandler(text.New(os.Stderr))
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
