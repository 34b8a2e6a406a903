package templates

// Layout is the main site template.  It embeds the content for every other
// page.  Pages may define "head" to add elements to the document head.
var Layout = `
{{ define "layout" }}
<!DOCTYPE html>
<html lang="en">
	<head>
		<meta charset="utf-8">
		<meta name="viewport" content="width=device-width, initial-scale=1">
		<link rel="icon" type="image/svg+xml" href="/assets/images/icon-error.svg">
		<link rel="stylesheet" href="/assets/css/style.css">
		<title>Free trial signup</title>
		{{ block "head" . }}{{ end }}
	</head>
	<body>
		{{ template "content" . }}
	</body>
</html>
{{ end }}
`
