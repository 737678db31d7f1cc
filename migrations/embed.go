// Package migrations embeds the SQL schema applied by "casemon-server migrate".
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
