package qr

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Decoder reads QR codes with gozxing.
type Decoder struct{}

var hints = map[gozxing.DecodeHintType]interface{}{
	gozxing.DecodeHintType_TRY_HARDER: true,
}

// Decode returns the payload of the QR code in img, or nothing when the
// image has none.
func (Decoder) Decode(img image.Image) ([]string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("qr: bitmap: %w", err)
	}
	res, err := qrcode.NewQRCodeReader().Decode(bmp, hints)
	if _, notFound := err.(gozxing.NotFoundException); notFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("qr: decode: %w", err)
	}
	if res.GetText() == "" {
		return nil, nil
	}
	return []string{res.GetText()}, nil
}
