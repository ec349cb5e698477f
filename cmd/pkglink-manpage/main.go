package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/pkglink/cmd/pkglink"
	"github.com/arthur-debert/pkglink/internal/version"
)

func main() {
	rootCmd := pkglink.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "PKGLINK",
		Section: "1",
		Source:  "pkglink " + version.Version,
		Manual:  "pkglink manual",
	}

	if err := doc.GenMan(rootCmd, header, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
