package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pryzma-lang/pryzma/hub"
	"github.com/pryzma-lang/pryzma/manifest"
	"github.com/pryzma-lang/pryzma/text"
)

func main() {

	fmt.Print(text.Logo())

	mft, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Println(text.ERROR + err.Error())
		os.Exit(1)
	}

	hb := hub.New(mft, os.Stdin, os.Stdout)

	// An entry in the manifest or a script on the command line starts a
	// service before the prompt appears.
	if len(os.Args) > 1 {
		hb.Do("hub run " + strings.Join(os.Args[1:], " "))
	} else if mft.Project.Entry != "" {
		hb.Do("hub run " + mft.Project.Entry)
	}

	hub.Start(hb)
}
