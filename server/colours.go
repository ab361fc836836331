package server

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// ANSI colours for development route logging
const (
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	Gray    = "\033[90m"

	ResetColor = "\033[0m"
)

var methodColors = map[string]string{
	"GET":    Green,
	"POST":   Blue,
	"PUT":    Cyan,
	"DELETE": Yellow,
	"PATCH":  Magenta,
}

// colouredMethod pads the method to a fixed width so that paths line up.
func colouredMethod(method string) string {
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	return color + fmt.Sprintf(" %-7s", method) + ResetColor
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colouredMethod(method), path)
}

func logStatus(method, path string, code int) {
	if code < 400 {
		return
	}
	log.Warn().Msgf("[%-19s] %s %s%d%s", colouredMethod(method), path, Red, code, ResetColor)
}
