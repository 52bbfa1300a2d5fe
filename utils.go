package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

func checkf(err error, format string, args ...any) {
	if err != nil {
		log.Printf(format, args...)
		log.Println()
		log.Fatalf("%+v", errors.WithStack(err))
	}
}

func assertf(ok bool, format string, args ...any) {
	if !ok {
		log.Printf(format, args...)
		log.Println()
		log.Fatalf("%+v", errors.Errorf("Should be true, but is false"))
	}
}

var errc = color.New(color.BgRed, color.FgWhite)

// oerr prints a usage error. All diagnostics go to stderr; stdout is
// reserved for generated journal entries.
func oerr(msg string) {
	errc.Fprintf(color.Error, "\tERROR: "+msg+" ")
	fmt.Fprintln(color.Error)
	fmt.Fprintln(color.Error, "Flags available:")
	flag.PrintDefaults()
	fmt.Fprintln(color.Error)
}
