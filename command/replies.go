package command

import (
	_ "embed"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/habiliai/botruntime/errors"
)

var (
	//go:embed data/replies.tmpl
	repliesTmplText string
	repliesTmpl     = template.Must(template.New("replies").Funcs(funcMap()).Parse(repliesTmplText))
)

func funcMap() template.FuncMap {
	return sprig.TxtFuncMap()
}

// render executes the named reply and splits it into chat lines.
func render(name string, data any) ([]string, error) {
	var buf strings.Builder
	if err := repliesTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, errors.Wrapf(err, "failed to render reply %q", name)
	}
	return strings.Split(strings.TrimSpace(buf.String()), "\n"), nil
}

type (
	nameData struct {
		Name string
	}

	listEntry struct {
		Name    string
		ClassID uint8
		RaceID  uint8
		Level   uint8
		Spawned bool
	}

	listData struct {
		Bots    []listEntry
		Unsaved []string
	}
)
