// Prints keccak256 of hex input read from the
// first argument or stdin. With -text the input is
// hashed as is.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/indexsupply/ethsig/eth"
	"github.com/indexsupply/ethsig/isxhash"
)

func check(err error) {
	if err != nil {
		fmt.Printf("%s\n", err)
		os.Exit(1)
	}
}

func main() {
	var text bool
	flag.BoolVar(&text, "text", false, "hash the input without hex decoding")
	flag.Parse()

	var input string
	switch flag.NArg() {
	case 0:
		b, err := io.ReadAll(os.Stdin)
		check(err)
		input = strings.TrimSuffix(string(b), "\n")
	case 1:
		input = flag.Arg(0)
	default:
		fmt.Println("keccak reads from stdin or through first argument")
		os.Exit(1)
	}
	if text {
		fmt.Println(eth.EncodeHex(isxhash.Keccak([]byte(input))))
		return
	}
	b, err := eth.DecodeHex(input)
	check(err)
	fmt.Println(eth.EncodeHex(isxhash.Keccak(b)))
}
