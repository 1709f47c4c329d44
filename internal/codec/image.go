package codec

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// formats maps accepted file extensions to the encoder used when writing.
var formats = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".tif":  "tiff",
	".tiff": "tiff",
	".bmp":  "bmp",
}

// Supported reports whether name carries an image extension the codec handles.
func Supported(name string) bool {
	_, ok := formats[strings.ToLower(filepath.Ext(name))]
	return ok
}

// CheckExtension returns an InputError if name has no supported extension.
func CheckExtension(name string) error {
	if !Supported(name) {
		return &InputError{Path: name, Reason: "unsupported file extension"}
	}
	return nil
}

// ReadImage opens and decodes the image at path. Paths are used as given.
func ReadImage(path string) (*image.NRGBA, error) {
	if err := CheckExtension(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}
	if info.Size() == 0 {
		return nil, &InputError{Path: path, Reason: "empty file"}
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return ToNRGBA(img), nil
}

// WriteImage encodes img using the format implied by the extension of path.
// A file that fails to encode is left on disk; callers own cleanup.
func WriteImage(path string, img image.Image) error {
	format, ok := formats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return &InputError{Path: path, Reason: "unsupported output extension"}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}

	switch format {
	case "png":
		err = png.Encode(f, img)
	case "jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	case "tiff":
		err = tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
	case "bmp":
		err = bmp.Encode(f, img)
	}
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to encode %s", path)
	}
	return errors.Wrapf(f.Close(), "failed to close %s", path)
}
