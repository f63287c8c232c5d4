package sink

import ferrors "github.com/matzehuels/familytree/pkg/errors"

func errImageTooLarge(w, h float64) error {
	return ferrors.New(ferrors.ErrCodeInvalidInput, "image of %.0fx%.0f pixels exceeds the PNG limit; lower the scale", w, h)
}

func errInvalidScale(scale float64) error {
	return ferrors.New(ferrors.ErrCodeInvalidInput, "invalid PNG scale %g: must be a positive finite number", scale)
}
