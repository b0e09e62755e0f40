// models/errors.go
package models

import "github.com/m-mizutani/goerr/v2"

var (
	// TagValidation marks input that is missing or malformed (400).
	TagValidation = goerr.NewTag("validation")
	// TagDatabase marks a failure reported by the storage engine (500).
	TagDatabase = goerr.NewTag("database")
)
