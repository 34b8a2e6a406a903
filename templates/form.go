package templates

// Form renders the signup page.  Fields in error carry the input-error class,
// the warning icon and their message beneath the input and never receive
// autofocus.  Focusing such a field hides the error and reports the focus to
// /focus; a reset pushed over /events reloads the page.
const Form = `
{{ define "head" }}
		{{ if .Success }}<noscript><meta http-equiv="refresh" content="{{ .ResetSeconds }};url=/"></noscript>{{ end }}
{{ end }}

{{ define "content" }}
<div class="container">
	<div class="header">
		<h1>{{ .Page.Headline }}</h1>
		<p class="paragraph">{{ .Page.Paragraph }}</p>
	</div>

	<div class="formAndPrice">
		<div class="price-info">
			<strong>{{ .Page.Highlight }}</strong> {{ .Page.Detail }}
		</div>
		<form class="form" action="/" method="post" novalidate>
			{{ range $field := .Fields }}
			<div class="form-group{{ if $field.Error }} has-error{{ end }}">
				<div class="input-wrapper">
					<label class="visually-hidden" for="{{ $field.ID }}">{{ $field.Label }}</label>
					<input id="{{ $field.ID }}" name="{{ $field.Name }}" type="{{ $field.Type }}" placeholder="{{ $field.Placeholder }}"
						value="{{ $field.Value }}" autocomplete="{{ $field.Autocomplete }}" data-field="{{ $field.Name }}"
						{{ if $field.Error }}class="input-error" aria-invalid="true" aria-describedby="{{ $field.ID }}-error"{{ end }}>
					{{ if $field.Error }}<img src="/assets/images/icon-error.svg" alt="Warning" class="warning-icon">{{ end }}
				</div>
				{{ if $field.Error }}
				<div class="error">
					<span class="error-message" id="{{ $field.ID }}-error">{{ $field.Error }}</span>
				</div>
				{{ end }}
			</div>
			{{ end }}
			{{ if .Success }}
			<p class="success-message" role="status">{{ .Success }}</p>
			{{ end }}
			<button type="submit" class="btn">{{ .Page.ButtonLabel }}</button>
			<p class="terms">
				By clicking the button, you are agreeing to our <a href="{{ .Page.TermsURL }}">Terms and Services</a>
			</p>
		</form>
	</div>
</div>
<script>
(function() {
	document.querySelectorAll("input[data-field]").forEach(function(input) {
		input.addEventListener("focus", function() {
			var group = input.closest(".form-group");
			if (!group || !group.classList.contains("has-error")) {
				return;
			}
			group.classList.remove("has-error");
			input.classList.remove("input-error");
			input.removeAttribute("aria-invalid");
			input.removeAttribute("aria-describedby");
			group.querySelectorAll(".error, .warning-icon").forEach(function(el) { el.remove(); });
			fetch("/focus", {
				method: "POST",
				credentials: "same-origin",
				headers: {"Content-Type": "application/x-www-form-urlencoded"},
				body: "field=" + encodeURIComponent(input.dataset.field)
			});
		});
	});
	if (!window.WebSocket) {
		return;
	}
	var scheme = location.protocol === "https:" ? "wss://" : "ws://";
	var events = new WebSocket(scheme + location.host + "/events");
	events.onmessage = function(msg) {
		var ev = JSON.parse(msg.data);
		if (ev.kind === "reset") {
			location.replace("/");
		}
	};
})();
</script>
{{ end }}
`
