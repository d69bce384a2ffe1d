package terrarium

import "github.com/ashgrove-labs/terrarium/internal/errs"

// Kind and Error are re-exported from internal/errs so library callers can
// branch on failure categories without importing an internal package.
type Kind = errs.Kind
type Error = errs.Error

const (
	KindInvalidCoordinate  = errs.KindInvalidCoordinate
	KindInvalidRect        = errs.KindInvalidRect
	KindTileNotLoaded      = errs.KindTileNotLoaded
	KindTileAbsentUpstream = errs.KindTileAbsentUpstream
	KindNetworkError       = errs.KindNetworkError
	KindFilesystemError    = errs.KindFilesystemError
	KindDecodeError        = errs.KindDecodeError
	KindImageSaveError     = errs.KindImageSaveError
	KindNotImplemented     = errs.KindNotImplemented
	KindConfigMissingKey   = errs.KindConfigMissingKey
)

// NewTileAbsentUpstream and friends construct tagged errors; exported for
// callers that stub terrarium collaborators in their own tests.
var (
	NewInvalidCoordinate  = errs.NewInvalidCoordinate
	NewInvalidRect        = errs.NewInvalidRect
	NewTileNotLoaded      = errs.NewTileNotLoaded
	NewTileAbsentUpstream = errs.NewTileAbsentUpstream
	NewNetworkError       = errs.NewNetworkError
	NewFilesystemError    = errs.NewFilesystemError
	NewDecodeError        = errs.NewDecodeError
	NewImageSaveError     = errs.NewImageSaveError
	NewNotImplemented     = errs.NewNotImplemented
	NewConfigMissingKey   = errs.NewConfigMissingKey
)

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return errs.Is(err, kind)
}
