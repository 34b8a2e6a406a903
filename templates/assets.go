package templates

import "embed"

// Assets holds the stylesheet and images served under /assets/.
//
//go:embed assets
var Assets embed.FS
