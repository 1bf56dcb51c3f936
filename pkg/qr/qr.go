// Package qr checks the badge's QR code parameters: whether the target URL
// fits the chosen symbol version and error correction level, and how large
// the rendered code is on the panel.
package qr

import (
	"net/url"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

// ECC is the error correction level.
type ECC int

const (
	Low ECC = iota
	Medium
	Quartile
	High
)

func (e ECC) String() string {
	switch e {
	case Low:
		return "L"
	case Medium:
		return "M"
	case Quartile:
		return "Q"
	case High:
		return "H"
	}
	return "?"
}

// ParseECC accepts the single-letter level or its long name.
func ParseECC(s string) (ECC, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L", "LOW":
		return Low, nil
	case "M", "MEDIUM":
		return Medium, nil
	case "Q", "QUARTILE":
		return Quartile, nil
	case "H", "HIGH":
		return High, nil
	}
	return 0, pkgerrors.Errorf("unknown error correction level %q, must be L, M, Q or H", s)
}

func (e ECC) level() (qrcode.RecoveryLevel, error) {
	switch e {
	case Low:
		return qrcode.Low, nil
	case Medium:
		return qrcode.Medium, nil
	case Quartile:
		return qrcode.High, nil
	case High:
		return qrcode.Highest, nil
	}
	return 0, pkgerrors.Errorf("invalid error correction level %d", e)
}

const (
	MinVersionNumber = 1
	MaxVersionNumber = 40
	// QuietZone is the blank border, in modules, on each side.
	QuietZone = 4
)

// MinVersion returns the smallest version that holds payload at the given level.
func MinVersion(payload string, ecc ECC) (int, error) {
	level, err := ecc.level()
	if err != nil {
		return 0, err
	}
	q, err := qrcode.New(payload, level)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "%d bytes do not fit any qr version at level %s", len(payload), ecc)
	}
	return q.VersionNumber, nil
}

// Modules returns the side length of a version's symbol, in modules.
func Modules(version int) int {
	return 17 + 4*version
}

// Params are the rendering parameters for the badge QR code.
type Params struct {
	URL     string
	Version int
	ECC     ECC
	// Scale is the number of pixels per module.
	Scale int
}

// Modules is the symbol side length without quiet zone.
func (p Params) Modules() int {
	return Modules(p.Version)
}

// PixelSize is the rendered side length including the quiet zone.
func (p Params) PixelSize() int {
	return (p.Modules() + 2*QuietZone) * p.Scale
}

// Validate checks that the URL is absolute, fits the symbol, and that the
// rendered code is at most maxPixels on a side. An empty URL disables the
// code and is always valid.
func (p Params) Validate(maxPixels int) error {
	if p.URL == "" {
		return nil
	}

	u, err := url.Parse(p.URL)
	if err != nil {
		return pkgerrors.Wrapf(err, "invalid qr url %q", p.URL)
	}
	if !u.IsAbs() || u.Host == "" {
		return pkgerrors.Errorf("qr url %q must be absolute", p.URL)
	}

	if p.Scale < 1 {
		return pkgerrors.Errorf("qr scale must be at least 1, got %d", p.Scale)
	}

	if _, err := p.ECC.level(); err != nil {
		return err
	}
	if p.Version < MinVersionNumber || p.Version > MaxVersionNumber {
		return pkgerrors.Errorf("qr version must be between %d and %d, got %d", MinVersionNumber, MaxVersionNumber, p.Version)
	}
	if _, err := p.Encode(); err != nil {
		msg := "qr url is %d bytes, too long for version %d at level %s"
		if minV, err := MinVersion(p.URL, p.ECC); err == nil {
			return pkgerrors.Errorf(msg+", use version %d or higher", len(p.URL), p.Version, p.ECC, minV)
		}
		return pkgerrors.Errorf(msg, len(p.URL), p.Version, p.ECC)
	}

	if size := p.PixelSize(); maxPixels > 0 && size > maxPixels {
		return pkgerrors.Errorf("qr code is %dpx at scale %d, more than the %dpx available", size, p.Scale, maxPixels)
	}

	return nil
}

// Encode builds the symbol at exactly p.Version. It fails when the URL does
// not fit.
func (p Params) Encode() (*qrcode.QRCode, error) {
	level, err := p.ECC.level()
	if err != nil {
		return nil, err
	}
	q, err := qrcode.NewWithForcedVersion(p.URL, p.Version, level)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to encode qr url")
	}
	return q, nil
}

// Render draws the symbol with half-height block characters for a terminal.
func (p Params) Render() (string, error) {
	q, err := p.Encode()
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}
