package web

import _ "embed"

// Index is the host page served at the site root.
//
//go:embed index.html
var Index []byte
