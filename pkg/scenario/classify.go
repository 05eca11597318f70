package scenario

import (
	stderrors "errors"

	"github.com/matzehuels/planestack/pkg/errors"
	"github.com/matzehuels/planestack/pkg/plane"
)

// codes maps plane sentinels to the codes scenarios expect. The specific
// binding sentinels wrap ErrInvalidBinding, so it comes first.
var codes = []struct {
	err  error
	code errors.Code
}{
	{plane.ErrInvalidBinding, errors.ErrCodeInvalidBinding},
	{plane.ErrUnknownPlane, errors.ErrCodeUnknownPlane},
	{plane.ErrDuplicateName, errors.ErrCodeDuplicateName},
	{plane.ErrInvalidGeometry, errors.ErrCodeInvalidGeometry},
	{plane.ErrCursorOutOfRange, errors.ErrCodeCursorRange},
	{plane.ErrStdPlane, errors.ErrCodeStdPlane},
	{plane.ErrSelfTarget, errors.ErrCodeSelfTarget},
	{plane.ErrClosed, errors.ErrCodeClosed},
}

// Classify attaches an error code to an error returned by the plane
// package. It returns nil for nil and err unchanged when it already has a
// code. Errors it does not recognise become INTERNAL_ERROR.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.GetCode(err) != "" {
		return err
	}
	for _, c := range codes {
		if stderrors.Is(err, c.err) {
			return errors.Wrap(c.code, err, "plane operation failed")
		}
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "plane operation failed")
}
