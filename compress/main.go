package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fumin/wordac"
)

var (
	flagConfig = flag.String("c", `{
		"Precision": 32,
		"MaxAlphabet": 1048576,
		"MaxTotal": 4294967296
		}`, "configuration")
	format  = flag.String("format", "text", "output format, text or binary")
	verbose = flag.Bool("verbose", false, "verbosity")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] filename\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	name := flag.Arg(0)
	if name == "" {
		flag.Usage()
		os.Exit(1)
	}

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

	if err := wordac.Compress(os.Stdout, name, cfg, f); err != nil {
		log.Fatalf("%+v", err)
	}
}
