// Package migrations embeds the SQL schema files so the binary is
// self-contained regardless of working directory.
package migrations

import "embed"

// FS contains all *.sql schema files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS

// Schema returns the schema SQL for the given driver ("sqlite" or "postgres").
func Schema(driver string) (string, error) {
	b, err := FS.ReadFile("001_initial_schema." + driver + ".sql")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
