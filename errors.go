package colakv

import (
	"errors"

	"github.com/coladb/colakv/internal/header"
	"github.com/coladb/colakv/internal/logging"
)

var (
	// ErrClosed is returned by any operation on a COLA handle after Close
	// has been called.
	ErrClosed = errors.New("colakv: handle is closed")

	// ErrKeyTooLong is returned when a key exceeds Options.MaxKeySize.
	ErrKeyTooLong = errors.New("colakv: key exceeds configured max key size")

	// ErrCorruptHeader is returned by Open when an existing file's header
	// fails its magic/version/checksum check.
	ErrCorruptHeader = header.ErrCorruptHeader

	// ErrFatal wraps every error returned after an I/O failure has put the
	// handle into its fatal state. Use errors.Is(err, ErrFatal).
	ErrFatal = logging.ErrFatal
)
