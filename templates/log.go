package templates

// LogView template for displaying the submission log in a list.
const LogView = `
{{define "content"}}
<div class="container">
	<div class="log">
		<h1>Submission log</h1>
		<p><a href="/">Back to the form</a></p>
		<table>
			<thead>
				<tr><th>ID</th><th>Submitted</th><th>Outcome</th><th>Finished</th></tr>
			</thead>
			<tbody>
				{{range $sub := .}}
					<tr>
						<td><a href="/log/{{$sub.ID}}">S{{$sub.ID}}</a></td>
						<td>{{$sub.SubmitTime.Format "2006-01-02 15:04:05"}}</td>
						<td>{{if $sub.Accepted}}accepted{{else}}<span class="status-error">rejected</span>{{end}}</td>
						<td>{{if $sub.IsFinished}}{{$sub.EndTime.Format "2006-01-02 15:04:05"}}{{end}}</td>
					</tr>
				{{end}}
			</tbody>
		</table>
	</div>
</div>
{{end}}
`

// SubmissionView shows a single submission record.  Records hold no field
// values, only the outcome.
const SubmissionView = `
{{define "content"}}
<div class="container">
	<div class="log">
		<h1>Submission S{{.ID}}</h1>
		<p><a href="/log">Back to the log</a></p>
		<table>
			<tbody>
				<tr><th>Session</th><td>{{.SessionID}}</td></tr>
				<tr><th>Submitted</th><td>{{.SubmitTime.Format "2006-01-02 15:04:05"}}</td></tr>
				<tr><th>Outcome</th><td>{{if .Accepted}}accepted{{else}}<span class="status-error">rejected</span>{{end}}</td></tr>
				{{if .FailedFields}}
				<tr><th>Failed fields</th><td>{{range $i, $f := .FailedFields}}{{if $i}}, {{end}}{{$f}}{{end}}</td></tr>
				{{end}}
				<tr><th>Finished</th><td>{{if .IsFinished}}{{.EndTime.Format "2006-01-02 15:04:05"}}{{else}}pending{{end}}</td></tr>
				{{if .Message}}
				<tr><th>Message</th><td>{{.Message}}</td></tr>
				{{end}}
			</tbody>
		</table>
	</div>
</div>
{{end}}
`
