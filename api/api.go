// Package api embeds the OpenAPI description served at /openapi.yml.
package api

import _ "embed"

//go:embed openapi.yml
var OpenAPI []byte
