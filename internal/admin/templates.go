package admin

import "html/template"

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>Ordered models</title></head>
<body>
<h1>Ordered models</h1>
<ul>
{{range .}}<li><a href="{{.URL}}">{{.Name}}</a></li>
{{end}}</ul>
</body>
</html>
`))

var listTemplate = template.Must(template.New("list").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Model}}</title></head>
<body>
<h1>{{.Model}}</h1>
<form method="get" action="">
<input type="search" name="q" value="{{.Query}}">
<button type="submit">Search</button>
</form>
<table>
<thead><tr>{{if .Partitioned}}<th>Parent</th>{{end}}<th>Order</th><th>Label</th><th>Move</th></tr></thead>
<tbody>
{{range .Rows}}<tr id="row-{{.ID}}">
{{if $.Partitioned}}<td>{{.Parent}}</td>{{end}}<td>{{.Order}}</td>
<td>{{.Label}}</td>
<td class="order-controls">
{{if .Controls.MoveUp}}<form method="post" action="{{.Controls.UpURL}}"><button type="submit" title="Move up">&uarr;</button></form>{{end}}
{{if .Controls.MoveDown}}<form method="post" action="{{.Controls.DownURL}}"><button type="submit" title="Move down">&darr;</button></form>{{end}}
{{if .Controls.MoveUp}}<form method="post" action="{{.TopURL}}"><button type="submit" title="Move to top">&#8607;</button></form>{{end}}
{{if .Controls.MoveDown}}<form method="post" action="{{.BottomURL}}"><button type="submit" title="Move to bottom">&#8609;</button></form>{{end}}
</td>
</tr>
{{end}}</tbody>
</table>
<p>{{.Total}} records</p>
{{if .PrevURL}}<a href="{{.PrevURL}}">previous</a>{{end}}
{{if .NextURL}}<a href="{{.NextURL}}">next</a>{{end}}
</body>
</html>
`))

type indexEntry struct {
	Name string
	URL  string
}

type listRow struct {
	ID        string
	Parent    string
	Order     int
	Label     string
	Controls  Controls
	TopURL    string
	BottomURL string
}

type listPage struct {
	Model       string
	Partitioned bool
	Query       string
	Rows        []listRow
	Total       int
	PrevURL     string
	NextURL     string
}
