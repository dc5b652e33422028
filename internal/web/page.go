package web

import "html/template"

type banner struct {
	Kind    string
	Message string
}

type page struct {
	Question string
	SQL      string
	Banner   *banner
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>MegatuneDB</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; }
textarea { width: 100%; font-family: monospace; }
.banner { padding: .75rem 1rem; border-radius: .25rem; margin: 1rem 0; }
.success { background: #e6f4ea; color: #1e4620; }
.error { background: #fdecea; color: #611a15; }
</style>
</head>
<body>
<h1><strong>MegatuneDB</strong></h1>
<h2>Natural Language to SQL Generator</h2>
<p>Enter a natural language question, and the model will generate an SQL query for you.</p>
<form method="post" action="/">
<label for="question">Enter your question:</label>
<textarea id="question" name="question" rows="6">{{.Question}}</textarea>
<button type="submit">Generate SQL</button>
</form>
{{with .Banner}}<div class="banner {{.Kind}}" role="alert">{{.Message}}</div>{{end}}
{{if .SQL}}
<label for="sql">Generated SQL Query:</label>
<textarea id="sql" rows="8" readonly>{{.SQL}}</textarea>
{{end}}
</body>
</html>
`))
