// Package srclist generates RTS-style sourcelists of polarised point sources
// for calibration and simulation.
//
// A YAML config names a pointing centre, a simulated frequency band and a set
// of sources, each offset from the pointing centre and described by its
// rotation measure, Stokes I and V reference fluxes, spectral index and
// fractional polarization. Every source is modelled with
// [spectral.StokesIQUV] and written as
//
//	SOURCE <name> <RA hours> <Dec degrees>
//	FREQ <Hz> <I> <Q> <U> <V>
//	...
//	ENDSOURCE
//
// # Usage
//
//	cfg, err := srclist.Load("eor1.yaml")
//	out, err := srclist.Generate(cfg, "eor1", "lists/")
//
// Generate writes <obsid>_<stem>_cal.txt with the sources of type
// "calibrator" and <obsid>_<stem>_sim.txt with all sources.
package srclist
