package server

import (
	"github.com/morezero/course-recommender/pkg/dispatcher"
	"github.com/morezero/course-recommender/pkg/form"
)

type navItem struct {
	Name   string
	Title  string
	Active bool
}

// outcomeView is one rendered outcome. Kind is an interpreter.Kind or "error".
type outcomeView struct {
	Kind      string
	Message   string
	Detail    string
	HasDetail bool
	Columns   []string
	Rows      [][]string
}

type pageData struct {
	Nav      []navItem
	Form     *dispatcher.FormView
	Values   map[string]string
	Outcome  *outcomeView
	Version  string
	MaxChars int
}

func (s *Server) pageData(active string, fv *dispatcher.FormView, values map[string]string, ov *outcomeView) *pageData {
	nav := make([]navItem, len(s.nav))
	for i, n := range s.nav {
		n.Active = n.Name == active
		nav[i] = n
	}
	return &pageData{Nav: nav, Form: fv, Values: values, Outcome: ov, Version: s.version, MaxChars: form.MaxChars}
}

// pageTemplate is the single page layout: functionality selector, form, outcome.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{if .Form}}{{.Form.PageTitle}} | {{end}}Course Recommender</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; line-height: 1.5; display: flex; min-height: 100vh; }
    a { color: #0066cc; }
    h1, h2, h3 { color: #0066cc; }
    nav { width: 280px; background: #f0f4f8; padding: 1.5rem 1rem; border-right: 1px solid #ccc; }
    nav h2 { font-size: 1.1rem; margin-top: 0; }
    nav ul { list-style: none; padding: 0; margin: 0; }
    nav li a { display: block; padding: 0.4rem 0.5rem; text-decoration: none; border-radius: 4px; }
    nav li a.active { background: #0066cc; color: #fff; }
    main { flex: 1; padding: 2rem; max-width: 1000px; }
    .fields { display: flex; gap: 1rem; flex-wrap: wrap; }
    .fields-single .field { max-width: 320px; }
    .fields-columns .field { flex: 1; min-width: 160px; }
    label { display: block; font-weight: bold; margin-bottom: 0.25rem; }
    input[type=text] { width: 100%; padding: 0.45rem; border: 1px solid #ccc; border-radius: 4px; }
    .btn { margin-top: 1rem; padding: 0.5rem 1rem; background: #0066cc; color: #fff; border: 0; border-radius: 4px; cursor: pointer; }
    .btn:hover { background: #0052a3; }
    table { border-collapse: collapse; width: 100%; margin-top: 1.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .banner { margin-top: 1.5rem; padding: 0.75rem 1rem; border-radius: 4px; }
    .banner-success { background: #e6f4ea; color: #1e7e34; }
    .banner-failure, .banner-error { background: #fdecea; color: #cc0000; }
    .banner-empty_notice { background: #f0f4f8; color: #333; }
    .detail { margin: 0.25rem 0 0; color: #333; }
    .meta { color: #333; font-size: 0.85rem; margin-top: 2rem; }
  </style>
</head>
<body>
  <nav>
    <h2>Functionalities</h2>
    <ul>
      {{range .Nav}}
      <li><a href="/f/{{.Name}}"{{if .Active}} class="active"{{end}}>{{.Title}}</a></li>
      {{end}}
    </ul>
  </nav>
  <main>
    {{if .Form}}
    <h1>{{.Form.DisplayTitle}}</h1>
    <form method="post" action="/f/{{.Form.Name}}">
      <div class="fields fields-{{.Form.Layout}}">
        {{range .Form.Fields}}
        <div class="field">
          <label for="f-{{.Name}}">{{.Label}}</label>
          <input type="text" id="f-{{.Name}}" name="{{.Name}}" placeholder="{{.Placeholder}}" maxlength="{{$.MaxChars}}" value="{{index $.Values .Name}}">
        </div>
        {{end}}
      </div>
      <button type="submit" class="btn">{{.Form.SubmitLabel}}</button>
    </form>
    {{else if not .Outcome}}
    <h1>Course Recommender</h1>
    <p>No functionalities are registered.</p>
    {{end}}

    {{with .Outcome}}
    {{if eq .Kind "table"}}
    <table>
      <thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
      <tbody>
        {{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
        {{end}}
      </tbody>
    </table>
    {{else}}
    <div class="banner banner-{{.Kind}}" role="status">
      <strong>{{.Message}}</strong>
      {{if .HasDetail}}<p class="detail">{{.Detail}}</p>{{end}}
    </div>
    {{end}}
    {{end}}

    {{if .Version}}<p class="meta">Catalog version {{.Version}}</p>{{end}}
  </main>
</body>
</html>
`
