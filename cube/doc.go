// Package cube assembles per-frequency 2-D sky images into a 3-D spectral
// cube and derives the matching FITS header.
//
// Channel images follow the naming convention
//
//	<prefix>_<freq>MHz_<suffix><POL>.fits
//
// where <freq> has up to three integer and three fractional digits and <POL>
// is one of I, Q, U or V. A [Catalog] maps each (frequency, polarization)
// pair to exactly one file, so assembly never depends on directory listing
// order and a missing channel is always an error rather than a gap.
//
// The assembled [Cube] is ordered (Dec, RA, frequency) with frequency
// varying fastest, which is FITS NAXIS1. [DeriveCubeHeader] turns the 2-D
// (or 4-D, with degenerate frequency/Stokes axes) template header into a 3-D
// one without modifying the template.
//
// # Usage
//
//	cat, err := cube.ScanDir("images/")
//	res, err := cube.Build(cat, cube.BuildConfig{OutDir: "out", Pol: cube.StokesQ})
//	// out/cube_Q.fits and out/frequency.txt
package cube
