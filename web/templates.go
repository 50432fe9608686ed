package web

import (
	"fmt"
	"html/template"
	"strings"
)

var funcs = template.FuncMap{
	"join": strings.Join,
	"kb": func(n int) string {
		return fmt.Sprintf("%.2f KB", float64(n)/1024)
	},
}

// The newline right after <textarea> is dropped by HTML parsers; it is
// there so a result starting with "\n" keeps its first line break.
const pageHTML = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Extração de texto de PDFs e imagens</title>
<style>
body { font-family: sans-serif; display: flex; gap: 2em; margin: 1em 2em; }
aside { flex: 0 0 22em; }
main { flex: 1; min-width: 0; }
textarea { width: 100%; font-family: monospace; }
table { border-collapse: collapse; }
td { border: 1px solid #999; padding: 2px 6px; }
img { max-width: 100%; }
.info { background: #e8f0fe; padding: .8em; }
.hint { background: #fff4e5; padding: .8em; }
.error { background: #fde8e8; padding: .8em; }
</style>
</head>
<body>
<aside>
<h2>Configurações</h2>
<form method="get" action="/">
<label>Escolha uma biblioteca:
<select name="library">
{{- range .Libraries}}
<option value="{{.ID}}"{{if eq .ID $.Selected.ID}} selected{{end}}>{{.Name}} - {{.Description}}</option>
{{- end}}
</select></label>
<button type="submit">Selecionar</button>
</form>
<p><strong>Biblioteca selecionada:</strong> {{.Selected.Name}}</p>
<p><strong>Descrição:</strong> {{.Selected.Description}}</p>
<p><strong>Aceita arquivos:</strong> {{join .Selected.Accepts ", "}}</p>
<form method="post" action="/process" enctype="multipart/form-data">
<input type="hidden" name="library" value="{{.Selected.ID}}">
<label>Carregar arquivo <input type="file" name="file" accept="{{.Selected.AcceptAttr}}" required></label>
<button type="submit">Processar</button>
</form>
</aside>
<main>
{{- with .Entry}}
<h3>Detalhes do arquivo</h3>
<p><strong>Nome:</strong> {{.FileName}}</p>
<p><strong>Tipo:</strong> {{.MIMEType}}</p>
<p><strong>Tamanho:</strong> {{kb .Size}}</p>
<h3>Resultado</h3>
{{- with .Result.Quality}}
{{- if .NeedsOCR}}
<p class="hint">O texto extraído parece incompleto ou ilegível. Tente uma biblioteca com OCR.</p>
{{- end}}
{{- if .HasVisualGap}}
<p class="hint">O documento menciona figuras ou gráficos que não aparecem no texto extraído.</p>
{{- end}}
{{- end}}
<label>Texto extraído:
<textarea readonly rows="20">
{{.Result.Text}}</textarea></label>
<p><a href="/results/{{.ID}}/download" download>Baixar resultado como arquivo de texto</a></p>
{{- range $i, $a := .Result.Attachments}}
<figure>
<figcaption>{{$a.Caption}}</figcaption>
{{- if eq $a.Kind "image"}}
<img src="/results/{{$.Entry.ID}}/attachments/{{$i}}" alt="{{$a.Caption}}">
{{- else if $a.Table}}
<table>
{{- range $a.Table.Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
{{- end}}
</figure>
{{- end}}
{{- else}}
<p class="info">Faça upload de um arquivo ({{join .Selected.Accepts ", "}}) para processá-lo com {{.Selected.Name}}.</p>
{{- end}}
<hr>
<h3>Sobre as bibliotecas disponíveis:</h3>
<ul>
{{- range .About}}
<li><strong>{{.Name}}</strong>: {{.Text}}</li>
{{- end}}
</ul>
</main>
</body>
</html>
`

var pageTmpl = template.Must(template.New("page").Funcs(funcs).Parse(pageHTML))
