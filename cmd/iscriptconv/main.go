// iscriptconv converts a legacy iscript.bin into the YAML assembly format.
package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/drevilslab/openbw/internal/iscript"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "Usage: iscriptconv <iscript.bin> <output.yaml>")
		os.Exit(1)
	}

	prog, err := iscript.LoadBin(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	doc, err := iscript.ToDoc(prog)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out, err := os.Create(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer out.Close()

	fmt.Fprintf(out, "# generated by iscriptconv from %s\n", os.Args[1])
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := enc.Close(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("Converted %d scripts (%d code words) to %s\n", len(prog.Scripts), len(prog.Code), os.Args[2])
}
