package errs

import "github.com/m-mizutani/goerr/v2"

var (
	RepositoryKey = goerr.NewTypedKey[string]("repository")
)
