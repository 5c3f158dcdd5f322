package web

import (
	"bytes"
	"html/template"
	"net/http"
)

var messageTemplate = template.Must(template.New("message").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</body>
</html>
`))

var profileTemplate = template.Must(template.New("profile").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Profile</title></head>
<body>
<h1>Profile</h1>
<p>Username: {{.Username}}</p>
<p>Session ID: {{.SessionID}}</p>
</body>
</html>
`))

type messageView struct {
	Title   string
	Message string
}

type profileView struct {
	Username  string
	SessionID string
}

func page(status int, title, message string) Response {
	return render(status, messageTemplate, messageView{Title: title, Message: message})
}

func render(status int, tmpl *template.Template, data any) Response {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(http.StatusText(status))
	}

	h := make(http.Header)
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	return Response{Status: status, Body: buf.String(), Headers: h}
}
