package cli

import "errors"

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigFileRead     = errors.New("cannot read config file")
	errConfigInvalid      = errors.New("invalid config")
	errConfigExists       = errors.New("config file already exists")
	errIndentInvalid      = errors.New("indent must be spaces or tabs")
	errLockTimeoutInvalid = errors.New("lock_timeout must be a positive duration")
	errUnknownCommand     = errors.New("unknown command")
	errUsage              = errors.New("wrong number of arguments")
	errEmptyKey           = errors.New("key must not be empty")
	errUnknownSubcommand  = errors.New("unknown subcommand")
)
