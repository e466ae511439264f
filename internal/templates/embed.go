package templates

import (
	"embed"
	"io/fs"
)

// builtinTemplates embeds the starter documents shipped with yedit,
// one YAML file per template.
//
//go:embed builtin
var builtinTemplates embed.FS

// BuiltinFS returns the embedded filesystem containing builtin templates.
func BuiltinFS() fs.FS {
	sub, err := fs.Sub(builtinTemplates, "builtin")
	if err != nil {
		panic(err)
	}
	return sub
}
