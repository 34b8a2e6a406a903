package templates

var Fail = `
{{ define "content" }}
<div class="container">
	<div class="log">
		<h1>{{ .StatusCode }}: {{ .StatusText }}</h1>
		<div class="status-error">
		{{ .Message }}
		</div>
		<p><a href="/">Back to the form</a></p>
	</div>
</div>
{{ end }}
`
