package vault

import "errors"

var (
	// ErrBadPassphrase covers every failure mode of a master-key unwrap:
	// wrong passphrase, corrupted wrap, truncated nonce. One error on
	// purpose, so callers cannot tell which internal check rejected it.
	ErrBadPassphrase = errors.New("vault: invalid master passphrase")

	// ErrCorruptConfig means config.json is unparsable, has missing or
	// invalid fields, or is not a version this build knows. A config.json
	// that does not exist is reported as the os not-exist error instead.
	// Not recoverable without a backup.
	ErrCorruptConfig = errors.New("vault: corrupt or unsupported config")
)
