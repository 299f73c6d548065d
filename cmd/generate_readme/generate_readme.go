package main

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/keshon/fossil/internal/command"

	_ "github.com/keshon/fossil/internal/command/add"
	_ "github.com/keshon/fossil/internal/command/init"
	_ "github.com/keshon/fossil/internal/command/ls"
	_ "github.com/keshon/fossil/internal/command/profile"
	_ "github.com/keshon/fossil/internal/command/restore"
	_ "github.com/keshon/fossil/internal/command/rm"
	_ "github.com/keshon/fossil/internal/command/snapshot"
	_ "github.com/keshon/fossil/internal/command/snapshots"
	_ "github.com/keshon/fossil/internal/command/status"
	_ "github.com/keshon/fossil/internal/command/verify"
	_ "github.com/keshon/fossil/internal/command/watch"
)

func main() {
	tplBytes, err := os.ReadFile("README.md.tmpl")
	if err != nil {
		fmt.Printf("Failed to read template: %v\n", err)
		os.Exit(1)
	}

	tpl, err := template.New("readme").Parse(string(tplBytes))
	if err != nil {
		fmt.Printf("Failed to parse template: %v\n", err)
		os.Exit(1)
	}

	data := map[string]string{
		"CommandSections": sections(command.AllCommands()),
	}

	outFile, err := os.Create("README.md")
	if err != nil {
		fmt.Printf("Failed to create README.md: %v\n", err)
		os.Exit(1)
	}
	defer outFile.Close()

	if err := tpl.Execute(outFile, data); err != nil {
		fmt.Printf("Failed to render template: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("README.md generated successfully")
}

// sections renders one markdown section per command, subcommands nested
// under their parent.
func sections(cmds []command.Command) string {
	var b strings.Builder
	var walk func(cmd command.Command, depth int)
	walk = func(cmd command.Command, depth int) {
		fmt.Fprintf(&b, "%s %s\n```\nfossil %s\n\n%s\n```\n\n",
			strings.Repeat("#", 3+depth), cmd.Name(), cmd.Usage(), cmd.Help())
		for _, sub := range cmd.Subcommands() {
			walk(sub, depth+1)
		}
	}
	for _, cmd := range cmds {
		walk(cmd, 0)
	}
	return b.String()
}
