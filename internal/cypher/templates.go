package cypher

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed *.cql
var files embed.FS

var templates = template.Must(template.ParseFS(files, "*.cql"))

// Unwind 是所有批量语句的前缀。
const Unwind = "UNWIND $events AS event"

// MustTemplate 渲染指定模板，失败直接 panic；模板均为内嵌文件，出错即为编程错误。
func MustTemplate(name string, data any) string {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, name, data); err != nil {
		panic(fmt.Errorf("execute template %s failed: %w", name, err))
	}
	return strings.TrimSpace(sb.String())
}
