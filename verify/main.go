package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fumin/wordac"
	"github.com/pkg/errors"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s file1 file2\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}

	pos, ok, err := run(flag.Arg(0), flag.Arg(1))
	if err != nil {
		log.Fatalf("%+v", err)
	}
	if !ok {
		fmt.Printf("FAIL at word %d.\n", pos)
		os.Exit(1)
	}
	fmt.Println("PASS.")
}

func run(name1, name2 string) (int, bool, error) {
	x, err := readFile(name1)
	if err != nil {
		return -1, false, errors.Wrap(err, "")
	}
	y, err := readFile(name2)
	if err != nil {
		return -1, false, errors.Wrap(err, "")
	}
	if len(x) != len(y) {
		log.Printf("file 1 length: %d, file 2 length: %d", len(x), len(y))
	}
	pos, ok := wordac.Verify(x, y)
	return pos, ok, nil
}

func readFile(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer f.Close()
	symbols, err := wordac.ReadSymbols(f)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return symbols, nil
}
