package main

import (
	"flag"
	"log"
	"os"

	"github.com/fumin/wordac"
)

var (
	flagConfig = flag.String("c", `{
		"MaxAlphabet": 1048576,
		"MaxTotal": 4294967296
		}`, "configuration, records beyond its bounds are rejected")
	format  = flag.String("format", "text", "input format, text or binary")
	verbose = flag.Bool("verbose", false, "verbosity")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	cfg, err := wordac.ParseConfig(*flagConfig)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	if *verbose {
		cfg.Hook = &wordac.LogHook{}
	}
	f, err := wordac.ParseFormat(*format)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	if err := wordac.Decompress(os.Stdout, os.Stdin, f, cfg); err != nil {
		log.Fatalf("%+v", err)
	}
}
